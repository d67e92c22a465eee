package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/gregLibert/thai-idcard/pkg/config"
	"github.com/gregLibert/thai-idcard/pkg/thaiid"
	"gopkg.in/yaml.v3"
)

// writeRecord prints rec in the given output format.
func writeRecord(w io.Writer, rec *thaiid.Record, format string, now time.Time) error {
	summary := rec.Summarize(now)

	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(summary)

	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summary); err != nil {
			return err
		}
		return enc.Close()

	default:
		return writeText(w, rec, summary)
	}
}

func writeText(w io.Writer, rec *thaiid.Record, s thaiid.Summary) error {
	gender := s.Gender
	if rec.GenderCode().Known() {
		gender = fmt.Sprintf("%s (%s)", s.Gender, rec.GenderCode().ThaiLabel())
	}

	expiry := s.ExpiryDate
	if s.Expired {
		expiry += " (expired)"
	}

	photo := "none"
	if s.PhotoSize > 0 {
		photo = fmt.Sprintf("%d bytes", s.PhotoSize)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Citizen ID", s.CitizenID},
		{"Name (TH)", s.ThaiName},
		{"Name (EN)", s.EnglishName},
		{"Date of birth", s.DateOfBirth},
		{"Gender", gender},
		{"Issuer", s.Issuer},
		{"Issue date", s.IssueDate},
		{"Expiry date", expiry},
		{"Address", s.Address},
		{"Photo", photo},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// savePhoto writes the photo as dir/<cid>.jpg and returns the path.
func savePhoto(dir string, rec *thaiid.Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(rec.PhotoFilename()))
	if err := os.WriteFile(path, rec.Photo, 0o644); err != nil {
		return "", fmt.Errorf("failed to save photo: %w", err)
	}
	return path, nil
}
