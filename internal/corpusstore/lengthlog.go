package corpusstore

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// lengthEntry is one line of the sidecar monotonic length log: after every
// append, the store records the new length of the group that grew. Replaying
// this log on open and comparing it to the lengths actually found in the
// corpus file is what lets validate() detect offline truncation.
type lengthEntry struct {
	Group     string    `json:"group"`
	Length    int64     `json:"length"`
	Timestamp time.Time `json:"ts"`
}

// lengthLog appends lines to the sidecar length log file.
type lengthLog struct {
	file *os.File
}

func openLengthLog(path string) (*lengthLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("corpusstore: open length log %q: %w", path, err)
	}
	return &lengthLog{file: f}, nil
}

func (l *lengthLog) append(group string, length int64) error {
	line, err := json.Marshal(lengthEntry{Group: group, Length: length, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("corpusstore: marshal length entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("corpusstore: write length entry: %w", err)
	}
	return l.file.Sync()
}

func (l *lengthLog) close() error {
	return l.file.Close()
}

// readRecordedLengths replays the length log at path and returns, per
// group, the last (highest) length recorded for it. A missing file yields
// an empty map — a brand new corpus has no history to compare against.
func readRecordedLengths(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int64{}, nil
		}
		return nil, fmt.Errorf("corpusstore: open length log %q: %w", path, err)
	}
	defer f.Close()

	recorded := map[string]int64{}
	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e lengthEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("corpusstore: malformed length log entry: %w", err)
		}
		recorded[e.Group] = e.Length
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("corpusstore: scanning length log %q: %w", path, err)
	}
	return recorded, nil
}
