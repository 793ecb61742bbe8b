package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chai2010/gettext-go/po"
)

// ErrMalformedPO is returned when a PO file cannot be read.
var ErrMalformedPO = errors.New("malformed PO file")

const fuzzyFlag = "fuzzy"

// WritePO writes entries in gettext PO format, in the order given. An empty
// lang writes a template (POT) header.
func WritePO(w io.Writer, lang string, entries []Entry) error {
	header := po.Header{
		Language:                lang,
		MimeVersion:             "1.0",
		ContentType:             "text/plain; charset=UTF-8",
		ContentTransferEncoding: "8bit",
		XGenerator:              "nuggets",
	}

	var buf bytes.Buffer
	buf.WriteString(header.String())
	for _, e := range entries {
		if e.MsgID == "" {
			continue
		}
		buf.WriteString("\n")
		buf.WriteString(toMessage(e).String())
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write PO: %w", err)
	}
	return nil
}

// ReadPO reads the singular entries of a PO file. The header and plural
// entries are skipped; msgctxt is accepted but ignored.
func ReadPO(in io.Reader) ([]Entry, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read PO file: %w", err)
	}
	if err := checkContinuations(data); err != nil {
		return nil, err
	}

	file, err := po.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPO, err)
	}

	var entries []Entry
	for _, msg := range file.Messages {
		if msg.MsgId == "" || msg.MsgIdPlural != "" {
			continue
		}
		entries = append(entries, fromMessage(msg))
	}
	return entries, nil
}

func toMessage(e Entry) po.Message {
	msg := po.Message{MsgId: e.MsgID, MsgStr: e.MsgStr}
	msg.ExtractedComment = strings.ReplaceAll(e.Comment, "\r", "")
	for _, ref := range e.References {
		file, line := splitReference(ref)
		msg.ReferenceFile = append(msg.ReferenceFile, file)
		msg.ReferenceLine = append(msg.ReferenceLine, line)
	}
	if e.Fuzzy {
		msg.Flags = []string{fuzzyFlag}
	}
	return msg
}

func fromMessage(msg po.Message) Entry {
	e := Entry{
		MsgID:   msg.MsgId,
		MsgStr:  msg.MsgStr,
		Comment: msg.ExtractedComment,
		Fuzzy:   msg.GetFuzzy(),
	}
	for i, file := range msg.ReferenceFile {
		ref := file
		if line := msg.ReferenceLine[i]; line > 0 {
			ref = file + ":" + strconv.Itoa(line)
		}
		e.References = append(e.References, ref)
	}
	return e
}

// splitReference splits "file:line". A reference without a line number
// gets line 0, which fromMessage drops again.
func splitReference(ref string) (string, int) {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return ref, 0
	}
	line, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return ref, 0
	}
	return ref[:i], line
}

// checkContinuations rejects quoted lines that do not continue a keyword.
// po.Load does not advance past such a line.
func checkContinuations(data []byte) error {
	continuing := false
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, `"`):
			if !continuing {
				return fmt.Errorf("%w: line %d: string without keyword", ErrMalformedPO, i+1)
			}
		case strings.HasPrefix(line, "msg"):
			continuing = true
		default:
			continuing = false
		}
	}
	return nil
}
