package survey

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/surveybridge/internal/adapter/driven/jsonrpc"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

// technicalColumns is the number of leading export columns that describe the
// response rather than answer a question: id, token, submitdate, lastpage,
// startlanguage, seed.
const technicalColumns = 6

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ListAnswers exports the completed responses of a survey and returns one
// Answer per response, keyed by question title.
func (c *Client) ListAnswers(ctx context.Context, surveyID int64) ([]model.Answer, error) {
	encoded, err := jsonrpc.Call[string](ctx, c.rpc, "export_responses",
		surveyID, "csv", c.language, "complete", "code", "short")

	var se *jsonrpc.StatusError
	if errors.As(err, &se) && isNoData(se.Status) {
		return []model.Answer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exporting responses of survey %d: %w", surveyID, err)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("decoding responses of survey %d: %w", surveyID, err)
	}

	answers, err := parseAnswers(data, c.csvDelimiter)
	if err != nil {
		return nil, fmt.Errorf("parsing responses of survey %d: %w", surveyID, err)
	}
	return answers, nil
}

// parseAnswers reads a response export. The header names the technical
// columns followed by one column per question title.
func parseAnswers(data []byte, delimiter rune) ([]model.Answer, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []model.Answer{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) < technicalColumns {
		return nil, fmt.Errorf("header has %d columns, want at least %d", len(header), technicalColumns)
	}

	technical := make(map[string]int, technicalColumns)
	for i, name := range header[:technicalColumns] {
		technical[strings.ToLower(strings.TrimSpace(name))] = i
	}
	titles := header[technicalColumns:]

	answers := []model.Answer{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(answers)+1, err)
		}

		a := model.Answer{
			ResponseID:  column(record, technical, "id"),
			Token:       column(record, technical, "token"),
			SubmittedAt: column(record, technical, "submitdate"),
			Answers:     make(map[string]string, len(titles)),
		}
		for i, title := range titles {
			idx := technicalColumns + i
			if idx < len(record) {
				a.Answers[title] = record[idx]
			} else {
				a.Answers[title] = ""
			}
		}
		answers = append(answers, a)
	}

	return answers, nil
}

func column(record []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
