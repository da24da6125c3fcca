package importer

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

// MaxFileSize caps what an import may read into memory.
const MaxFileSize int64 = 32 << 20

var (
	ErrNoProcessor  = errors.New("no processor for type")
	ErrFileTooLarge = errors.New("import file too large")
	ErrEmptyFile    = errors.New("import file has no header")
)

type Request struct {
	Type           string
	FilePath       string
	BatchSize      int
	SchoolID       string
	ImportRecordID string
}

type Result struct {
	Source        string `json:"source"`
	FilePath      string `json:"file_path"`
	Format        string `json:"format"`
	RowsProcessed int    `json:"rows_processed"`
	SHA256        string `json:"sha256"`
	ContentType   string `json:"content_type,omitempty"`
	Bucket        string `json:"bucket,omitempty"`
	Key           string `json:"key,omitempty"`
	SizeBytes     int64  `json:"size_bytes"`
}

// Tracker records the import record lifecycle. Optional.
type Tracker interface {
	Processing(ctx context.Context, importRecordID string) error
	Finish(ctx context.Context, importRecordID string, rows int, err error) error
}

type Service struct {
	Opener     ports.FileOpener
	Processors map[string]ports.Processor
	Tracker    Tracker
	DefaultBS  int
	Log        logrus.FieldLogger
}

func NewService(opener ports.FileOpener, registry map[string]ports.Processor, tracker Tracker, defaultBatch int, log logrus.FieldLogger) *Service {
	if defaultBatch <= 0 {
		defaultBatch = 1000
	}
	return &Service{Opener: opener, Processors: registry, Tracker: tracker, DefaultBS: defaultBatch, Log: log}
}

func (s *Service) Import(ctx context.Context, req Request) (res Result, err error) {
	t0 := time.Now()
	ctx = context.WithValue(ctx, ports.CtxImportRecordID, req.ImportRecordID)
	ctx = context.WithValue(ctx, ports.CtxSchoolID, req.SchoolID)
	log := s.Log.WithFields(logrus.Fields{
		"type":             req.Type,
		"path":             req.FilePath,
		"school":           req.SchoolID,
		"import_record_id": req.ImportRecordID,
	})
	log.WithField("batch_size", req.BatchSize).Info("[IMP][START]")

	proc, ok := s.Processors[req.Type]
	if !ok {
		log.Error("[IMP][ERR] no processor")
		return Result{}, fmt.Errorf("%w: %s", ErrNoProcessor, req.Type)
	}

	s.track(ctx, log, req.ImportRecordID, nil)
	defer func() { s.track(ctx, log, req.ImportRecordID, &outcome{rows: res.RowsProcessed, err: err}) }()

	data, meta, err := s.read(ctx, req.FilePath)
	if err != nil {
		log.WithError(err).Error("[IMP][ERR] open")
		return Result{}, err
	}

	format := detectFormat(req.FilePath, meta.ContentType)
	log.WithFields(logrus.Fields{
		"source":       meta.Source,
		"content_type": meta.ContentType,
		"size":         len(data),
		"format":       format,
	}).Info("[IMP] file read")

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = s.DefaultBS
	}

	// xlsx is a zip archive; anything else is tried as delimited text
	order := []string{"csv", "xlsx"}
	if format == "xlsx" || bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		order = []string{"xlsx", "csv"}
	}

	var total int
	var readErr error
	for i, f := range order {
		if f == "xlsx" {
			total, readErr = s.streamXLSXFirstSheet(ctx, log, bytes.NewReader(data), proc, batchSize)
		} else {
			total, readErr = s.streamCSV(ctx, log, bytes.NewReader(data), proc, batchSize)
		}
		// rows already handed to the processor must not be replayed
		if readErr == nil || total > 0 {
			format = f
			break
		}
		if i+1 < len(order) {
			log.WithError(readErr).Warnf("[IMP][%s][ERR] fallback to %s", strings.ToUpper(f), order[i+1])
		}
	}
	if readErr != nil {
		log.WithError(readErr).Error("[IMP][ERR] read pipeline")
		return Result{RowsProcessed: total}, readErr
	}

	sum := sha256.Sum256(data)
	res = Result{
		Source:        meta.Source,
		FilePath:      req.FilePath,
		Format:        format,
		RowsProcessed: total,
		SHA256:        hex.EncodeToString(sum[:]),
		ContentType:   meta.ContentType,
		Bucket:        meta.Bucket,
		Key:           meta.Key,
		SizeBytes:     int64(len(data)),
	}
	log.WithFields(logrus.Fields{"format": format, "rows": total, "duration": time.Since(t0).String()}).Info("[IMP][DONE]")
	return res, nil
}

type outcome struct {
	rows int
	err  error
}

// track marks the record as processing when o is nil and finishes it
// otherwise. Tracking failures are logged, never returned.
func (s *Service) track(ctx context.Context, log logrus.FieldLogger, id string, o *outcome) {
	if s.Tracker == nil || id == "" {
		return
	}
	var err error
	if o == nil {
		err = s.Tracker.Processing(ctx, id)
	} else {
		err = s.Tracker.Finish(context.WithoutCancel(ctx), id, o.rows, o.err)
	}
	if err != nil {
		log.WithError(err).Warn("[IMP][TRACK][ERR]")
	}
}

// read loads the whole file. Both readers need to start over when the first
// guess at the format is wrong, and xlsx needs random access anyway.
func (s *Service) read(ctx context.Context, filePath string) ([]byte, ports.Meta, error) {
	rc, meta, err := s.Opener.Open(ctx, filePath)
	if err != nil {
		return nil, ports.Meta{}, err
	}
	defer rc.Close()

	if meta.Size > MaxFileSize {
		return nil, meta, ErrFileTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(rc, MaxFileSize+1))
	if err != nil {
		return nil, meta, err
	}
	if int64(len(data)) > MaxFileSize {
		return nil, meta, ErrFileTooLarge
	}
	return data, meta, nil
}

func (s *Service) streamCSV(ctx context.Context, log logrus.FieldLogger, r io.Reader, proc ports.Processor, batchSize int) (int, error) {
	start := time.Now()
	br := bufio.NewReader(r)
	first, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = sniffDelimiter(first)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, ErrEmptyFile
	}
	if err != nil {
		return 0, err
	}
	header = cleanHeader(header)
	log.WithField("header", header).Debug("[IMP][CSV] header")

	batch := make([]map[string]string, 0, batchSize)
	total, batches := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.WithError(err).Warn("[IMP][CSV][WARN] read row")
			continue
		}
		if blank(record) {
			continue
		}
		batch = append(batch, toMap(header, record))

		if len(batch) >= batchSize {
			log.Debugf("[IMP][CSV] send batch #%d size=%d total_so_far=%d", batches+1, len(batch), total)
			if e := proc.ProcessBatch(ctx, batch); e != nil {
				return total, e
			}
			total += len(batch)
			batches++
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if e := proc.ProcessBatch(ctx, batch); e != nil {
			return total, e
		}
		total += len(batch)
		batches++
	}
	log.WithFields(logrus.Fields{"rows": total, "batches": batches, "duration": time.Since(start).String()}).Info("[IMP][CSV][DONE]")
	return total, nil
}

func (s *Service) streamXLSXFirstSheet(ctx context.Context, log logrus.FieldLogger, r io.Reader, proc ports.Processor, batchSize int) (int, error) {
	start := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, errors.New("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Error() != nil {
			return 0, rows.Error()
		}
		return 0, ErrEmptyFile
	}
	header, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	header = cleanHeader(header)
	log.WithFields(logrus.Fields{"sheet": sheet, "header": header}).Debug("[IMP][XLSX] header")

	batch := make([]map[string]string, 0, batchSize)
	total, batches := 0, 0

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		cols, err := rows.Columns()
		if err != nil {
			log.WithError(err).Warn("[IMP][XLSX][WARN] read row")
			continue
		}
		if blank(cols) {
			continue
		}
		batch = append(batch, toMap(header, cols))

		if len(batch) >= batchSize {
			log.Debugf("[IMP][XLSX] send batch #%d size=%d total_so_far=%d", batches+1, len(batch), total)
			if e := proc.ProcessBatch(ctx, batch); e != nil {
				return total, e
			}
			total += len(batch)
			batches++
			batch = batch[:0]
		}
	}
	if err := rows.Error(); err != nil {
		return total, err
	}
	if len(batch) > 0 {
		if e := proc.ProcessBatch(ctx, batch); e != nil {
			return total, e
		}
		total += len(batch)
		batches++
	}
	log.WithFields(logrus.Fields{"rows": total, "batches": batches, "duration": time.Since(start).String()}).Info("[IMP][XLSX][DONE]")
	return total, nil
}

// sniffDelimiter picks ';' when the header line has more of them than
// commas, the usual export of pt-BR spreadsheets.
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func cleanHeader(h []string) []string {
	out := make([]string, len(h))
	copy(out, h)
	if len(out) > 0 {
		out[0] = strings.TrimPrefix(out[0], "\ufeff")
	}
	return out
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func toMap(header []string, row []string) map[string]string {
	m := make(map[string]string, len(header))
	for i, key := range header {
		val := ""
		if i < len(row) {
			val = row[i]
		}
		m[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return m
}

func detectFormat(filePath, contentType string) string {
	p := filePath
	if u, err := url.Parse(filePath); err == nil && u != nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "xlsx":
		return "xlsx"
	case "csv", "txt":
		return "csv"
	}
	med, _, _ := mime.ParseMediaType(contentType)
	switch med {
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "text/csv", "application/csv", "text/plain":
		return "csv"
	}
	return ""
}
