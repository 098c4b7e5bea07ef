package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/larkvine/docrag/internal/config"
	"github.com/larkvine/docrag/internal/model"
	appErr "github.com/larkvine/docrag/internal/pkg/errors"
)

// Engine converts a raw document buffer plus its declared type into
// normalized plain text. Structured parsers run first; for pdf and
// word formats a heuristic cascade recovers whatever readable text it
// can when structured parsing is unavailable or the buffer is broken.
type Engine struct {
	pdfLicensed bool
}

func NewEngine(cfg config.ExtractConfig) *Engine {
	e := &Engine{}
	if cfg.UnidocLicenseKey != "" {
		if err := license.SetMeteredKey(cfg.UnidocLicenseKey); err == nil {
			e.pdfLicensed = true
		}
	}
	return e
}

func (e *Engine) Extract(ctx context.Context, buf []byte, fileType model.FileType) (string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_type", string(fileType)), zap.Int("size", len(buf)))
	var text string
	switch fileType {
	case model.FileTypeTxt:
		text = decodeUTF8(buf)
	case model.FileTypeMd:
		text = markdownToText(buf)
	case model.FileTypePDF:
		text = e.extractPDF(ctx, buf)
	case model.FileTypeDocx:
		text = e.extractDocx(ctx, buf)
	case model.FileTypeDoc:
		// Legacy binary word files have no structured parser here;
		// the cascade is the only path.
		var strategyName string
		text, strategyName = runFallback(buf)
		logger.Debug("doc fallback extraction", zap.String("strategy", strategyName))
	default:
		return "", fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, fileType)
	}

	cleaned := Clean(text)
	if cleaned == "" {
		logger.Warn("no readable text recovered")
		return "", fmt.Errorf("%w: no readable text in %s buffer", appErr.ErrExtractionFailed, fileType)
	}
	logger.Info("text extracted", zap.Int("chars", len(cleaned)))
	return cleaned, nil
}

func (e *Engine) extractPDF(ctx context.Context, buf []byte) string {
	logger := logutil.GetLogger(ctx)
	if e.pdfLicensed {
		if text, err := structuredPDFText(buf); err == nil && strings.TrimSpace(text) != "" {
			return text
		} else if err != nil {
			logger.Warn("structured pdf parse failed, trying heuristics", zap.Error(err))
		}
	}
	text, strategyName := runFallback(buf)
	logger.Debug("pdf fallback extraction", zap.String("strategy", strategyName))
	return text
}

func structuredPDFText(buf []byte) (string, error) {
	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", err
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func (e *Engine) extractDocx(ctx context.Context, buf []byte) string {
	if text, err := docxText(buf); err == nil && strings.TrimSpace(text) != "" {
		return text
	} else if err != nil {
		logutil.GetLogger(ctx).Warn("docx parse failed, trying heuristics", zap.Error(err))
	}
	text, strategyName := runFallback(buf)
	logutil.GetLogger(ctx).Debug("docx fallback extraction", zap.String("strategy", strategyName))
	return text
}

// docxText pulls the character data out of word/document.xml inside
// the docx zip container. Paragraph boundaries become newlines.
func docxText(buf []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return "", err
	}
	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", err
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}
	defer doc.Close()

	decoder := xml.NewDecoder(doc)
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), nil
}

func markdownToText(buf []byte) string {
	md := goldmark.New()
	reader := gmtext.NewReader(buf)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock && sb.Len() > 0 {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(buf))
			if node.(*ast.Text).SoftLineBreak() || node.(*ast.Text).HardLineBreak() {
				sb.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return decodeUTF8(buf)
	}
	return text
}

func decodeUTF8(buf []byte) string {
	if utf8.Valid(buf) {
		return string(buf)
	}
	return strings.ToValidUTF8(string(buf), "")
}
