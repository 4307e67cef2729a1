package algorithm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"passwordCrackerEngine/internal/core/domain"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxWordLength is the longest wordlist line accepted as a candidate.
const MaxWordLength = 1024

var (
	ruleNames = []string{"uppercase", "capitalize", "reverse", "leet", "append_numbers"}

	leetReplacer = strings.NewReplacer(
		"a", "4", "e", "3", "i", "1",
		"o", "0", "s", "5", "t", "7",
	)
)

// Dictionary reads wordlists line by line. Each word is emitted as is and
// then once per rule whose output differs from the word.
type Dictionary struct {
	spec     domain.SourceSpec
	paths    []string
	rules    []string
	total    uint64
	position uint64

	index     int
	file      *os.File
	reader    *bufio.Reader
	lineStart int64 // offset of the line held in word
	next      int64 // offset of the first unread byte
	word      string
	hasWord   bool
	step      int // 0 is the word itself, n is rules[n-1]
	done      bool
}

func NewDictionary(spec domain.SourceSpec) (*Dictionary, error) {
	if spec.Wordlist == nil || len(spec.Wordlist.Paths) == 0 {
		return nil, fmt.Errorf("%w: wordlist source without files", domain.ErrInvalidSource)
	}
	for _, rule := range spec.Wordlist.Rules {
		if !knownRule(rule) {
			return nil, fmt.Errorf("%w: unknown rule %q (known: %s)", domain.ErrInvalidSource, rule, strings.Join(ruleNames, ", "))
		}
	}

	d := &Dictionary{
		spec:  spec,
		paths: spec.Wordlist.Paths,
		rules: spec.Wordlist.Rules,
	}
	words, err := d.countTotalWords()
	if err != nil {
		return nil, err
	}
	d.total = words * uint64(1+len(d.rules))
	return d, nil
}

func (d *Dictionary) Next() (domain.Candidate, error) {
	for {
		if d.done {
			return nil, io.EOF
		}

		if d.hasWord {
			for d.step <= len(d.rules) {
				step := d.step
				d.step++
				out := d.word
				if step > 0 {
					out = d.applyRule(d.word, d.rules[step-1])
					if out == d.word {
						continue
					}
				}
				d.position++
				return domain.Candidate(out), nil
			}
			d.hasWord = false
		}

		if err := d.readWord(); err != nil {
			return nil, err
		}
	}
}

// readWord loads the next usable line into word. It returns nil with
// hasWord unset when it only moved on to the next file or hit the end.
func (d *Dictionary) readWord() error {
	if d.index >= len(d.paths) {
		d.done = true
		d.closeFile()
		return nil
	}
	if d.file == nil {
		if err := d.openAt(d.next); err != nil {
			d.done = true
			return &domain.GenerationError{Position: d.position, Err: err}
		}
	}

	raw, err := d.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		d.done = true
		d.closeFile()
		return &domain.GenerationError{Position: d.position, Err: fmt.Errorf("read %s: %w", d.paths[d.index], err)}
	}
	if len(raw) == 0 {
		d.closeFile()
		d.index++
		d.next = 0
		return nil
	}

	d.lineStart = d.next
	d.next += int64(len(raw))
	line := bytes.TrimRight(raw, "\r\n")
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}
	if len(line) > MaxWordLength || bytes.IndexByte(line, 0) >= 0 {
		return &domain.GenerationError{
			Position:    d.position,
			Recoverable: true,
			Err:         fmt.Errorf("%w: %s at offset %d", domain.ErrInvalidWordlist, d.paths[d.index], d.lineStart),
		}
	}

	d.word = string(line)
	d.hasWord = true
	d.step = 0
	return nil
}

func (d *Dictionary) openAt(offset int64) error {
	f, err := os.Open(d.paths[d.index])
	if err != nil {
		return err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	d.file = f
	d.reader = bufio.NewReaderSize(f, 64*1024)
	return nil
}

func (d *Dictionary) closeFile() {
	if d.file != nil {
		d.file.Close()
		d.file = nil
		d.reader = nil
	}
}

func (d *Dictionary) Size() (uint64, bool) {
	return d.total, true
}

func (d *Dictionary) Checkpoint() domain.Checkpoint {
	cp := domain.Checkpoint{Spec: d.spec, Position: d.position, Index: d.index, Offset: d.next}
	if d.hasWord {
		cp.Offset = d.lineStart
		cp.Step = d.step
	}
	return cp
}

func (d *Dictionary) resume(cp domain.Checkpoint) error {
	if cp.Index < 0 || cp.Index > len(d.paths) || cp.Offset < 0 {
		return fmt.Errorf("%w: checkpoint cursor out of range", domain.ErrInvalidSource)
	}
	d.closeFile()
	d.position = cp.Position
	d.index = cp.Index
	d.next = cp.Offset
	d.hasWord = false
	d.done = false
	if cp.Step == 0 || d.index == len(d.paths) {
		return nil
	}

	// Reload the partially expanded word so its remaining rules still run.
	if err := d.openAt(d.next); err != nil {
		return err
	}
	raw, err := d.reader.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: checkpoint offset %d is past the end of %s", domain.ErrInvalidSource, cp.Offset, d.paths[d.index])
	}
	d.lineStart = d.next
	d.next += int64(len(raw))
	d.word = string(bytes.TrimRight(raw, "\r\n"))
	d.hasWord = true
	d.step = cp.Step
	return nil
}

func (d *Dictionary) Kind() domain.SourceKind {
	return domain.SourceWordlist
}

func (d *Dictionary) Close() error {
	d.closeFile()
	return nil
}

func (d *Dictionary) applyRule(word, rule string) string {
	switch rule {
	case "uppercase":
		return strings.ToUpper(word)
	case "capitalize":
		r, size := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			return word
		}
		return string(unicode.ToUpper(r)) + word[size:]
	case "reverse":
		runes := []rune(word)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	case "append_numbers":
		return word + "0123456789"
	case "leet":
		return leetReplacer.Replace(word)
	default:
		return word
	}
}

// countTotalWords counts non-blank lines across all files. It doubles as the
// check that every wordlist is readable before the run starts.
func (d *Dictionary) countTotalWords() (uint64, error) {
	var total uint64
	for _, path := range d.paths {
		file, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidWordlist, err)
		}
		nonBlank := false
		r := bufio.NewReaderSize(file, 64*1024)
		for {
			chunk, err := r.ReadSlice('\n')
			if len(bytes.TrimSpace(chunk)) > 0 {
				nonBlank = true
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if nonBlank {
				total++
			}
			nonBlank = false
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				file.Close()
				return 0, fmt.Errorf("%w: %s: %v", domain.ErrInvalidWordlist, path, err)
			}
		}
		file.Close()
	}
	return total, nil
}

func knownRule(rule string) bool {
	for _, r := range ruleNames {
		if r == rule {
			return true
		}
	}
	return false
}
