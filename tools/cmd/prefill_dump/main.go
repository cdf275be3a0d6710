package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/disintegration/imaging"

	"fcstats/pkg/screenshot"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: go run ./tools/cmd/prefill_dump <screenshot> [preview.png]")
		os.Exit(2)
	}
	img, err := imaging.Open(os.Args[1])
	if err != nil {
		fmt.Printf("open image: %v\n", err)
		os.Exit(1)
	}
	ext, err := screenshot.NewTesseract()
	if err != nil {
		fmt.Printf("ocr backend: %v\n", err)
		os.Exit(1)
	}
	fields, preview, err := ext.Extract(img)
	if err != nil {
		fmt.Printf("extract: %v\n", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-24s %q\n", name, fields[name])
	}
	if len(os.Args) > 2 {
		if err := os.WriteFile(os.Args[2], preview, 0644); err != nil {
			fmt.Printf("write preview: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("preview written to %s\n", os.Args[2])
	}
}
