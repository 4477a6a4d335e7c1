package eventlog

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"assetdb/internal/domain"
	"assetdb/internal/ports"
)

// Log implements ports.EventLog over a directory of per-author text files.
// Each client appends only to its own "<author>.event.txt"; the directory is
// the replication medium, typically a revision-controlled or shared path.
//
// Line format, one event per line:
//
//	<id:uint64>|<created:uint64>|<username>|<data>
//
// The data field is last and may contain pipes. Lines starting with '#' are
// comments.
type Log struct {
	dir    string
	author string
	rcs    ports.RevisionControl
	logger *slog.Logger
}

var _ ports.EventLog = (*Log)(nil)

const fileHeader = `#------------------------------------------------------------
#
#                 *** DO NOT EDIT THIS FILE ***
#
# This file is an append-only event log and should not be
# edited by hand. Doing so may result in data loss.
#
#------------------------------------------------------------
`

func New(dir, author string, rcs ports.RevisionControl, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{dir: dir, author: author, rcs: rcs, logger: logger}
}

// CreateEvent stamps a new event for this client's author identity. It is
// not written anywhere until WriteEvents.
func (l *Log) CreateEvent(data string) *domain.Event {
	return domain.NewEvent(l.author, data)
}

// EventsFilePath is this client's own log file.
func (l *Log) EventsFilePath() string {
	return filepath.Join(l.dir, l.author+".event.txt")
}

// WriteEvents appends events to this client's own file and submits the new
// revision. Other authors' files are never written.
func (l *Log) WriteEvents(events []*domain.Event, description string) error {
	if len(events) == 0 {
		return nil
	}

	path := l.EventsFilePath()
	if err := l.rcs.Sync(path); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}

	existing, err := l.rcs.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		existing = []byte(fileHeader)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, ev := range events {
		fmt.Fprintf(&buf, "%d|%d|%s|%s\n", uint64(ev.ID), ev.Created, ev.Username, ev.Data)
	}

	if err := l.rcs.WriteRevision(path, buf.Bytes(), description); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// GetEvents returns every event from every author's file, unsorted.
func (l *Log) GetEvents() ([]*domain.Event, error) {
	if err := l.rcs.Sync(l.dir); err != nil {
		return nil, fmt.Errorf("failed to sync %s: %w", l.dir, err)
	}

	paths, err := filepath.Glob(filepath.Join(l.dir, "*.event.txt"))
	if err != nil {
		return nil, err
	}

	var events []*domain.Event
	for _, path := range paths {
		fileEvents, err := l.readEventsFile(path)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
	}
	return events, nil
}

// GetUnhandledEvents returns every event not in the handled set, in
// deterministic replay order.
func (l *Log) GetUnhandledEvents(handled map[domain.TUID]bool) ([]*domain.Event, error) {
	all, err := l.GetEvents()
	if err != nil {
		return nil, err
	}

	unhandled := make([]*domain.Event, 0, len(all))
	for _, ev := range all {
		if !handled[ev.ID] {
			unhandled = append(unhandled, ev)
		}
	}
	domain.SortEvents(unhandled)
	return unhandled, nil
}

// readEventsFile parses one author file. A malformed envelope line is
// logged and skipped rather than failing the whole read; one corrupt line
// must not hide another author's history.
func (l *Log) readEventsFile(path string) ([]*domain.Event, error) {
	data, err := l.rcs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var events []*domain.Event
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ev, err := parseEventLine(line)
		if err != nil {
			l.logger.Warn("skipping malformed event line",
				"file", path, "line", lineNo, "error", err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", path, err)
	}
	return events, nil
}

func parseEventLine(line string) (*domain.Event, error) {
	parts := strings.SplitN(line, "|", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad event id %q: %w", parts[0], err)
	}
	created, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad created stamp %q: %w", parts[1], err)
	}

	return &domain.Event{
		ID:       domain.TUID(id),
		Created:  created,
		Username: parts[2],
		Data:     parts[3],
	}, nil
}

const exportSeparator = "#------------------------------------------------------------"

// ExportHuman writes the full merged history in the readable export form:
//
//	Event: <local time>|<id:uint64>|<created:uint64>|<username>
//	Data:  <operation>|<created>|<modified>|<id:hex>|<path>
//	#---...
//
// Payloads that do not parse as patch records are exported raw so nothing
// is lost on a round trip.
func (l *Log) ExportHuman(w io.Writer) error {
	events, err := l.GetEvents()
	if err != nil {
		return err
	}
	domain.SortEvents(events)

	for _, ev := range events {
		stamp := time.UnixMilli(int64(ev.Created)).Format(time.ANSIC)
		if _, err := fmt.Fprintf(w, "Event: %s|%d|%d|%s\n",
			stamp, uint64(ev.ID), ev.Created, ev.Username); err != nil {
			return err
		}

		record, perr := domain.ParsePatchRecord(ev.Data)
		if perr != nil {
			_, err = fmt.Fprintf(w, "Data:  %s\n", ev.Data)
		} else {
			_, err = fmt.Fprintln(w, record.HumanString())
		}
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, exportSeparator); err != nil {
			return err
		}
	}
	return nil
}

// ImportHuman reads a human export and replaces this client's own log file
// with the parsed events, submitting the result as one revision. Events keep
// their original IDs and stamps; the usual manual-repair flow is export,
// edit, import, recreate.
//
// The export merges every author; only events authored by this client end
// up in its file. Other authors' events are dropped with a warning so their
// logs stay the single source for their history.
func (l *Log) ImportHuman(r io.Reader, description string) error {
	events, err := parseHumanExport(r)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	for _, ev := range events {
		if ev.Username != l.author {
			l.logger.Warn("dropping foreign event on import",
				"event", ev.ID.Hex(), "author", ev.Username)
			continue
		}
		fmt.Fprintf(&buf, "%d|%d|%s|%s\n", uint64(ev.ID), ev.Created, ev.Username, ev.Data)
	}
	return l.rcs.WriteRevision(l.EventsFilePath(), buf.Bytes(), description)
}

func parseHumanExport(r io.Reader) ([]*domain.Event, error) {
	var events []*domain.Event
	var current *domain.Event

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue

		case strings.HasPrefix(line, "Event:"):
			if current != nil {
				return nil, fmt.Errorf("line %d: event header without data line", lineNo)
			}
			ev, err := parseHumanEventHeader(strings.TrimSpace(strings.TrimPrefix(line, "Event:")))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = ev

		case strings.HasPrefix(line, "Data:"):
			if current == nil {
				return nil, fmt.Errorf("line %d: data line without event header", lineNo)
			}
			record, err := domain.ParseHumanPatchRecord(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current.Data = record.Encode()
			events = append(events, current)
			current = nil

		default:
			return nil, fmt.Errorf("line %d: unrecognized line %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("event %s has no data line", current.ID.Hex())
	}
	return events, nil
}

// parseHumanEventHeader decodes "Event: <time>|<id>|<created>|<username>".
// The leading time field is display only and ignored.
func parseHumanEventHeader(s string) (*domain.Event, error) {
	parts := strings.SplitN(s, "|", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected 4 header fields, got %d", len(parts))
	}

	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad event id %q: %w", parts[1], err)
	}
	created, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad created stamp %q: %w", parts[2], err)
	}

	return &domain.Event{
		ID:       domain.TUID(id),
		Created:  created,
		Username: parts[3],
	}, nil
}
