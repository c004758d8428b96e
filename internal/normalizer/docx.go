package normalizer

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const docxBody = "word/document.xml"

// DOCX loads the paragraphs of an Office Open XML word document.
type DOCX struct {
	r    io.ReaderAt
	size int64
}

var _ documentloaders.Loader = DOCX{}

// NewDOCX creates a loader reading a .docx archive of the given size.
func NewDOCX(r io.ReaderAt, size int64) DOCX {
	return DOCX{r: r, size: size}
}

// Load returns one document holding the body text, one line per paragraph.
func (l DOCX) Load(_ context.Context) ([]schema.Document, error) {
	archive, err := zip.NewReader(l.r, l.size)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}

	body, err := archive.Open(docxBody)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", docxBody, err)
	}
	defer body.Close()

	text, err := docxParagraphs(body)
	if err != nil {
		return nil, err
	}

	return []schema.Document{
		{
			PageContent: text,
			Metadata:    map[string]any{},
		},
	}, nil
}

// LoadAndSplit loads the document and splits it with splitter.
func (l DOCX) LoadAndSplit(ctx context.Context, splitter textsplitter.TextSplitter) ([]schema.Document, error) {
	docs, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return textsplitter.SplitDocuments(splitter, docs)
}

// docxParagraphs walks the WordprocessingML body. Text runs are joined
// within a paragraph; tabs and breaks keep their whitespace.
func docxParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	return strings.Join(paragraphs, "\n"), nil
}
