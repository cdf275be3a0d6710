package gameimport

// Hand-maintained reconciliation tables between the scraped export and the
// local catalog/roster. They are data, not control flow: every Importer gets
// its own copies so fixes never require touching the import logic.

// DefaultPlaceholder is the label the export uses for every indistinguishable
// non-human participant. The schema forbids duplicate pseudos within a match,
// so these are rewritten with their row position appended.
const DefaultPlaceholder = "CPU"

// DefaultCharacterPatches maps sprite tokens whose spelling differs from the
// catalog display name to their catalog IDs. The seeded index already covers
// tokens that match a display name with spaces removed.
var DefaultCharacterPatches = map[string]string{
	"ninetales": "A_NINETALES", // export drops the regional prefix
	"mrmime":    "MR_MIME",     // export drops the period and space
	"mr.mime":   "MR_MIME",
	"wigglytuf": "WIGGLYTUFF", // recurring single-f spelling upstream
}

// DefaultPseudoAliases maps display names as the export renders them to the
// pseudos used in the club roster.
var DefaultPseudoAliases = map[string]string{
	"NoctuleFCS": "Noctule",
	"Tyrex_":     "Tyrex",
}

func copyTable(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
