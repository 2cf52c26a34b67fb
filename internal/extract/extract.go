package extract

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/novin-data/ingest-gateway/internal/model"
	"github.com/novin-data/ingest-gateway/pkg/logger"
)

// Staging is the filesystem staging area shared with the upstream producer
// and the archival store. Raw batches arrive under
// raw/<date=YYYY-MM-DD>/<hour=HH>/<kind>.json[.gz] as JSON lines.
type Staging struct {
	RawRoot       string
	ProcessedRoot string
	ArchiveRoot   string
}

// PartitionFile is one discovered raw batch file.
type PartitionFile struct {
	Partition model.Partition
	Path      string
}

// DiscoverPartitions lists the raw batch files present for one kind, in
// ascending (date, hour) order.
func (s *Staging) DiscoverPartitions(kind model.DatasetType) ([]PartitionFile, error) {
	dateDirs, err := os.ReadDir(s.RawRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var found []PartitionFile
	for _, dateDir := range dateDirs {
		if !dateDir.IsDir() {
			continue
		}
		hourDirs, err := os.ReadDir(filepath.Join(s.RawRoot, dateDir.Name()))
		if err != nil {
			return nil, err
		}
		for _, hourDir := range hourDirs {
			if !hourDir.IsDir() {
				continue
			}
			partition, err := parsePartition(dateDir.Name(), hourDir.Name())
			if err != nil {
				logger.Warn("skipping unrecognized staging directory",
					"date", dateDir.Name(), "hour", hourDir.Name(), "error", err)
				continue
			}
			for _, ext := range []string{".json.gz", ".json"} {
				path := filepath.Join(s.RawRoot, dateDir.Name(), hourDir.Name(), kind.FileName()+ext)
				if _, err := os.Stat(path); err == nil {
					found = append(found, PartitionFile{Partition: partition, Path: path})
				}
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		a, b := found[i].Partition, found[j].Partition
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Hour < b.Hour
	})
	return found, nil
}

func parsePartition(dateDir, hourDir string) (model.Partition, error) {
	dateStr, ok := strings.CutPrefix(dateDir, "date=")
	if !ok {
		return model.Partition{}, fmt.Errorf("directory %q: expected date= prefix", dateDir)
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return model.Partition{}, fmt.Errorf("directory %q: %w", dateDir, err)
	}
	hourStr, ok := strings.CutPrefix(hourDir, "hour=")
	if !ok {
		return model.Partition{}, fmt.Errorf("directory %q: expected hour= prefix", hourDir)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return model.Partition{}, fmt.Errorf("directory %q: hour out of range", hourDir)
	}
	return model.NewPartition(date, hour), nil
}

// ReadRecords decodes a raw batch file (gzipped or plain JSON lines). Numbers
// stay json.Number so currency fields survive untouched.
func ReadRecords(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	dec := json.NewDecoder(reader)
	dec.UseNumber()

	var records []map[string]any
	for dec.More() {
		var record map[string]any
		if err := dec.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// WriteProcessed writes accepted raw records as gzipped JSON lines under the
// processed root, mirroring the partition layout. Empty batches write
// nothing.
func (s *Staging) WriteProcessed(records []map[string]any, kind model.DatasetType, p model.Partition) error {
	if len(records) == 0 {
		return nil
	}
	dir := filepath.Join(s.ProcessedRoot, p.DateDir(), p.HourDir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return writeRecords(filepath.Join(dir, kind.FileName()+".json.gz"), records)
}

// RewriteRecords replaces the contents of an existing processed file in
// place, preserving its compression.
func RewriteRecords(path string, records []map[string]any) error {
	return writeRecords(path, records)
}

func writeRecords(path string, records []map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var writer io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(f)
		writer = gz
	}

	enc := json.NewEncoder(writer)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}
	return f.Close()
}

// ProcessedFile locates the processed data file for a kind and partition.
func (s *Staging) ProcessedFile(kind model.DatasetType, p model.Partition) (string, bool) {
	dir := filepath.Join(s.ProcessedRoot, p.DateDir(), p.HourDir())
	for _, ext := range []string{".json.gz", ".json"} {
		path := filepath.Join(dir, kind.FileName()+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// ArchiveRaw moves a consumed raw file into the archive tree so a rerun
// never re-ingests it.
func (s *Staging) ArchiveRaw(path string, p model.Partition) error {
	return s.archive(path, "raw", p)
}

// ArchiveProcessed moves a processed data file into the archive tree, used
// after an erasure pass rewrites it.
func (s *Staging) ArchiveProcessed(path string, p model.Partition) error {
	return s.archive(path, "processed", p)
}

func (s *Staging) archive(path, tree string, p model.Partition) error {
	dir := filepath.Join(s.ArchiveRoot, tree, p.DateDir(), p.HourDir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dir, filepath.Base(path)))
}

// CleanupEmptyDirs prunes partition directories emptied by archiving.
func (s *Staging) CleanupEmptyDirs() {
	dateDirs, err := os.ReadDir(s.RawRoot)
	if err != nil {
		return
	}
	for _, dateDir := range dateDirs {
		if !dateDir.IsDir() {
			continue
		}
		datePath := filepath.Join(s.RawRoot, dateDir.Name())
		hourDirs, err := os.ReadDir(datePath)
		if err != nil {
			continue
		}
		for _, hourDir := range hourDirs {
			hourPath := filepath.Join(datePath, hourDir.Name())
			if entries, err := os.ReadDir(hourPath); err == nil && len(entries) == 0 {
				_ = os.Remove(hourPath)
			}
		}
		if entries, err := os.ReadDir(datePath); err == nil && len(entries) == 0 {
			_ = os.Remove(datePath)
		}
	}
}
