package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jkobber/bubble-quiz/domain"
)

// ParseQuestionsCSV reads "text;correct;wrong1;wrong2;wrong3" rows after a
// header row. Rows with fewer than five fields are skipped. The correct
// answer is stored first.
func ParseQuestionsCSV(r io.Reader) ([]domain.Question, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	questions := make([]domain.Question, 0)
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuestion, err)
		}
		if header {
			header = false
			continue
		}
		if len(record) < 1+domain.ChoicesPerQuestion {
			continue
		}

		q := domain.Question{
			Text:         strings.TrimSpace(record[0]),
			Options:      make([]string, domain.ChoicesPerQuestion),
			CorrectIndex: 0,
		}
		for i := range q.Options {
			q.Options[i] = strings.TrimSpace(record[1+i])
		}
		if q.Validate() != nil {
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable rows", domain.ErrInvalidQuestion)
	}
	return questions, nil
}
