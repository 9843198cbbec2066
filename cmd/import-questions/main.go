package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/nepallicenseprep/likhit-backend/internal/importer"
	"github.com/nepallicenseprep/likhit-backend/internal/logger"
	"github.com/nepallicenseprep/likhit-backend/internal/repository"
)

func main() {
	var (
		in       = flag.String("in", "", "Path to the .xlsx question sheet")
		out      = flag.String("out", "", "Output JSON path (default stdout)")
		sheet    = flag.String("sheet", "", "Sheet name (default active sheet)")
		startRow = flag.Int("start-row", 2, "First data row, 1-based")
	)
	flag.Parse()

	// Logs go to stderr; stdout may carry the converted bank.
	log := logger.New(os.Stderr, "info", "pretty")

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatal().Err(err).Str("path", *in).Msg("Failed to open sheet")
	}
	defer f.Close()

	res, err := importer.Import(f, importer.Config{SheetName: *sheet, StartRow: *startRow})
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	for _, msg := range res.Errors {
		log.Warn().Msg(msg)
	}

	raw, err := json.MarshalIndent(res.Bank, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to encode bank")
	}

	// Round-trip through the loader so the output is known to be accepted.
	if _, err := repository.LoadQuestions(repository.QuestionBank{Name: *in, Shape: repository.ShapeIndexed, Raw: raw}); err != nil {
		log.Fatal().Err(err).Msg("Converted bank does not load")
	}

	if err := write(*out, raw); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}

	log.Info().
		Int("processed", res.Processed).
		Int("imported", len(res.Bank.Questions)).
		Int("skipped", res.Skipped).
		Msg("Import complete")
}

func write(path string, raw []byte) error {
	raw = append(raw, '\n')
	if path == "" {
		_, err := os.Stdout.Write(raw)
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
