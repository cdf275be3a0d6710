package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fcstats/models"
	"fcstats/pkg/gameimport"
	"fcstats/pkg/screenshot"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func setupRoutes(r *gin.Engine) {
	r.POST("/register", registerHandler)
	r.POST("/login", loginHandler)
	r.POST("/refresh", refreshHandler)
	r.POST("/revoke_refresh", revokeRefreshHandler)

	r.GET("/games", listGamesHandler)
	r.GET("/games/:id", gameDetailHandler)
	r.GET("/team_stats", teamStatsHandler)
	r.GET("/pokemons", listPokemonsHandler)
	r.GET("/teammates", listTeammatesHandler)

	authGroup := r.Group("")
	authGroup.Use(jwtAuthMiddleware())
	authGroup.GET("/me", meHandler)

	adminGroup := authGroup.Group("/admin")
	adminGroup.Use(adminOnlyMiddleware())
	adminGroup.POST("/games", createGameHandler)
	adminGroup.POST("/games/prefill", prefillGameHandler)
	adminGroup.POST("/games/import", importGamesHandler)
	adminGroup.POST("/teammates", createTeammateHandler)
}

func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}
		tokenString := authHeader[7:]
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}
		username, _ := claims["username"].(string)
		role, _ := claims["role"].(string)
		c.Set("username", username)
		if role != "" {
			c.Set("role", role)
		}
		c.Next()
	}
}

func adminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "administrator" {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func meHandler(c *gin.Context) {
	usernameVal, _ := c.Get("username")
	if usernameVal == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "context missing username"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": usernameVal.(string)})
}

// listGamesHandler returns the played games, newest first, optionally
// filtered by season and paginated.
func listGamesHandler(c *gin.Context) {
	perPage := 10
	if v := c.Query("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			perPage = n
		}
	}
	page := 1
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			page = n
		}
	}
	q := db.Model(&models.Game{})
	if v := c.Query("season"); v != "" {
		season, err := strconv.Atoi(v)
		if err != nil || season < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "season must be a positive integer"})
			return
		}
		q = q.Where("season = ?", season)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	var games []models.Game
	if err := q.Order("date desc").Limit(perPage).Offset((page - 1) * perPage).Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(games))
	for _, g := range games {
		out = append(out, gin.H{
			"id":              g.ID,
			"date":            g.Date,
			"season":          g.Season,
			"is_won":          g.IsWon,
			"is_forfeit":      g.IsForfeit,
			"score_allies":    g.ScoreAllies,
			"score_opponents": g.ScoreOpponents,
			"title":           g.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"games": out, "page": page, "per_page": perPage, "total": total})
}

// gameDetailHandler returns one game with both teams' players, each team's
// players ordered by their overall result, best first.
func gameDetailHandler(c *gin.Context) {
	var game models.Game
	if err := db.First(&game, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	var stats []models.PlayerStat
	if err := db.Preload("Pokemon").Where("game_id = ?", game.ID).Order("result desc").Find(&stats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	teams := []gin.H{
		{"score": game.ScoreAllies, "players": []gin.H{}},
		{"score": game.ScoreOpponents, "players": []gin.H{}},
	}
	for _, s := range stats {
		idx := 0
		if s.IsOpponent {
			idx = 1
		}
		teams[idx]["players"] = append(teams[idx]["players"].([]gin.H), gin.H{
			"pseudo":   s.Pseudo,
			"pokemon":  s.Pokemon.Name,
			"category": s.Pokemon.CategoryDisplay(),
			"scored":   s.Scored,
			"kills":    s.Kills,
			"assists":  s.Assists,
			"result":   s.Result,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"pk":         game.ID,
		"date":       game.Date,
		"season":     game.Season,
		"is_won":     game.IsWon,
		"is_forfeit": game.IsForfeit,
		"teams":      teams,
	})
}

// teamStatsHandler aggregates ally performance per teammate, optionally for
// one season.
func teamStatsHandler(c *gin.Context) {
	type Result struct {
		Pseudo      string
		GamesPlayed int64
		Wins        int64
		AvgScored   float64
		AvgKills    float64
		AvgAssists  float64
	}
	q := db.Model(&models.PlayerStat{}).
		Joins("JOIN games ON games.id = player_stats.game_id").
		Where("player_stats.is_opponent = ?", false)
	if v := c.Query("season"); v != "" {
		season, err := strconv.Atoi(v)
		if err != nil || season < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "season must be a positive integer"})
			return
		}
		q = q.Where("games.season = ?", season)
	}
	rows, err := q.Select(`player_stats.pseudo as pseudo,
		count(*) as games_played,
		sum(case when games.is_won then 1 else 0 end) as wins,
		avg(player_stats.scored) as avg_scored,
		avg(player_stats.kills) as avg_kills,
		avg(player_stats.assists) as avg_assists`).
		Group("player_stats.pseudo").
		Order("games_played desc").
		Rows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	defer rows.Close()
	var results []gin.H
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.Pseudo, &r.GamesPlayed, &r.Wins, &r.AvgScored, &r.AvgKills, &r.AvgAssists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
			return
		}
		results = append(results, gin.H{
			"pseudo":      r.Pseudo,
			"games":       r.GamesPlayed,
			"wins":        r.Wins,
			"avg_scored":  r.AvgScored,
			"avg_kills":   r.AvgKills,
			"avg_assists": r.AvgAssists,
		})
	}
	c.JSON(http.StatusOK, results)
}

func listPokemonsHandler(c *gin.Context) {
	var catalog []models.Pokemon
	if err := db.Order("id").Find(&catalog).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	out := make([]gin.H, 0, len(catalog))
	for _, p := range catalog {
		out = append(out, gin.H{"id": p.ID, "name": p.Name, "category": p.Category, "category_display": p.CategoryDisplay()})
	}
	c.JSON(http.StatusOK, out)
}

func listTeammatesHandler(c *gin.Context) {
	var roster []models.Teammate
	if err := db.Order("pseudo").Find(&roster).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, roster)
}

func createTeammateHandler(c *gin.Context) {
	var req struct {
		Pseudo string `json:"pseudo" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tm := models.Teammate{Pseudo: req.Pseudo}
	if err := db.FirstOrCreate(&tm, tm).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, tm)
}

type newPlayer struct {
	Pseudo     string `json:"pseudo" binding:"required"`
	Pokemon    string `json:"pokemon" binding:"required"`
	IsOpponent bool   `json:"is_opponent"`
	Scored     uint   `json:"scored"`
	Kills      uint   `json:"kills"`
	Assists    uint   `json:"assists"`
	Result     uint   `json:"result"`
}

type newGame struct {
	Date           string      `json:"date" binding:"required"` // RFC3339
	Season         uint        `json:"season" binding:"required"`
	IsWon          bool        `json:"is_won"`
	IsForfeit      bool        `json:"is_forfeit"`
	ScoreAllies    uint        `json:"score_allies"`
	ScoreOpponents uint        `json:"score_opponents"`
	Players        []newPlayer `json:"players" binding:"required"`
}

// createGameHandler records one match entered manually, typically after a
// screenshot prefill. Validation mirrors the importer's rules.
func createGameHandler(c *gin.Context) {
	var req newGame
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be RFC3339"})
		return
	}
	if err := validateNewGame(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	game := models.Game{
		Date:           date,
		Season:         req.Season,
		IsWon:          req.IsWon,
		IsForfeit:      req.IsForfeit,
		ScoreAllies:    req.ScoreAllies,
		ScoreOpponents: req.ScoreOpponents,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		for _, p := range req.Players {
			stat := models.PlayerStat{
				GameID:     game.ID,
				Pseudo:     p.Pseudo,
				PokemonID:  p.Pokemon,
				IsOpponent: p.IsOpponent,
				Scored:     p.Scored,
				Kills:      p.Kills,
				Assists:    p.Assists,
				Result:     p.Result,
			}
			if err := tx.Create(&stat).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": game.ID})
}

// validateNewGame enforces the in-match invariants for manual entry: ten
// players split five per side, unique pseudos, unique characters per side,
// allies on the roster, result flag consistent with the scores.
func validateNewGame(req newGame) error {
	if req.Season < 1 {
		return errors.New("season must be at least 1")
	}
	if len(req.Players) != 10 {
		return errors.New("a game needs exactly 10 players")
	}
	allies := 0
	seenPseudo := map[string]bool{}
	seenCharacter := map[string]bool{}
	for _, p := range req.Players {
		if !p.IsOpponent {
			allies++
			var cnt int64
			db.Model(&models.Teammate{}).Where("pseudo = ?", p.Pseudo).Count(&cnt)
			if cnt == 0 {
				return errors.New(p.Pseudo + ": ce coéquipier n'existe pas")
			}
		}
		if seenPseudo[p.Pseudo] {
			return errors.New("duplicate pseudo " + p.Pseudo)
		}
		seenPseudo[p.Pseudo] = true
		key := strconv.FormatBool(p.IsOpponent) + "/" + p.Pokemon
		if seenCharacter[key] {
			return errors.New("duplicate character " + p.Pokemon + " on the same side")
		}
		seenCharacter[key] = true
		var cnt int64
		db.Model(&models.Pokemon{}).Where("id = ?", p.Pokemon).Count(&cnt)
		if cnt == 0 {
			return errors.New("unknown character " + p.Pokemon)
		}
	}
	if allies != 5 {
		return errors.New("a game needs exactly 5 allies and 5 opponents")
	}
	if !req.IsForfeit && req.ScoreAllies != req.ScoreOpponents {
		if (req.ScoreAllies > req.ScoreOpponents) != req.IsWon {
			return errors.New("is_won disagrees with the scores")
		}
	}
	return nil
}

// prefillGameHandler loads a result screenshot and returns the recognized
// field map plus an annotated preview, for the operator to check before
// submitting the game form.
func prefillGameHandler(c *gin.Context) {
	file, err := c.FormFile("picture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "picture missing"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open picture"})
		return
	}
	defer f.Close()
	img, err := imaging.Decode(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "picture is not a decodable image"})
		return
	}
	ext, err := screenshot.NewTesseract()
	if err != nil {
		// Backend or language data missing is a deployment problem; report
		// it instead of returning an all-empty field map.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	fields, preview, err := ext.Extract(img)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fields":  fields,
		"preview": base64.StdEncoding.EncodeToString(preview),
	})
}

// importGamesHandler runs the bulk CSV importer over an uploaded export.
func importGamesHandler(c *gin.Context) {
	season, err := strconv.ParseUint(c.PostForm("season"), 10, 32)
	if err != nil || season < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "season must be a positive integer"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file missing"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open file"})
		return
	}
	defer f.Close()
	rows, err := gameimport.ReadRows(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := gameimport.New(db).ImportBatch(rows, uint(season))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, gameimport.ErrStorage) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func registerHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Register(req.Username, req.Password); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user registered successfully"})
}

func loginHandler(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := Login(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	// Generate JWT token. Resolve role name from RoleID (we only store role_id now).
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	refreshToken, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "login successful", "token": tokenString, "refresh_token": refreshToken})
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// helper to find refresh token record by raw token string
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

// refreshHandler exchanges a refresh token for a new access token and rotates the refresh token
func refreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil || rt.Revoked || time.Now().After(rt.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}
	var user models.User
	if err := db.First(&user, rt.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	roleName := ""
	if user.RoleID != nil {
		var r models.Role
		if err := db.First(&r, *user.RoleID).Error; err == nil {
			roleName = r.Name
		}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(15 * time.Minute).Unix(),
	})
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	// rotate refresh token: revoke existing and create new one
	db.Model(&models.RefreshToken{}).Where("id = ?", rt.ID).Update("revoked", true)
	newRT, err := createAndStoreRefreshToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rotate refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "refresh_token": newRT})
}

// revokeRefreshHandler revokes a given refresh token (useful on logout)
func revokeRefreshHandler(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rt, err := findRefreshTokenByRaw(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "refresh token not found"})
		return
	}
	rt.Revoked = true
	if err := db.Save(rt).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh token revoked"})
}
