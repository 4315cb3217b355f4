// Package taggedsentence reads and writes one sentence per line as
// space separated token/TAG pairs.
package taggedsentence

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type TaggedSentence struct {
	Tokens []string
	Tags   []string
}

func Read(reader io.Reader) ([]TaggedSentence, error) {
	var sentences []TaggedSentence
	scanner := bufio.NewScanner(reader)
	for i := 1; scanner.Scan(); i++ {
		line := scanner.Text()
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		taggedTokenStrings := strings.Fields(line)
		sent := TaggedSentence{
			Tokens: make([]string, len(taggedTokenStrings)),
			Tags:   make([]string, len(taggedTokenStrings)),
		}
		for j, taggedTokenString := range taggedTokenStrings {
			sep := strings.LastIndexByte(taggedTokenString, '/')
			if sep <= 0 || sep == len(taggedTokenString)-1 {
				return nil, errors.Errorf("Got untagged token: %s at line %d", taggedTokenString, i)
			}
			sent.Tokens[j] = taggedTokenString[:sep]
			sent.Tags[j] = taggedTokenString[sep+1:]
		}
		sentences = append(sentences, sent)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sentences, nil
}

func ReadFile(fs afero.Fs, filename string) ([]TaggedSentence, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Read(file)
}

func Write(writer io.Writer, sents []TaggedSentence) error {
	bw := bufio.NewWriter(writer)
	for _, sent := range sents {
		if len(sent.Tokens) != len(sent.Tags) {
			return errors.Errorf("sentence has %d tokens but %d tags", len(sent.Tokens), len(sent.Tags))
		}
		for j, token := range sent.Tokens {
			if j > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(token)
			bw.WriteByte('/')
			bw.WriteString(sent.Tags[j])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
