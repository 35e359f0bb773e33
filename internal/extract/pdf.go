package extract

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dslipak/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pageSeparator joins the text of consecutive pages.
const pageSeparator = " "

func extractPDF(content []byte) Result {
	res := Result{Kind: KindPDF}
	if len(content) == 0 {
		return res
	}

	r, err := openPDF(content)
	if err != nil {
		slog.Warn("Unreadable PDF, storing empty text.", "error", err)
		return res
	}

	res.PageCount = r.NumPage()
	pages := make([]string, 0, res.PageCount)
	for i := 1; i <= res.PageCount; i++ {
		text, err := pageText(r, i)
		if err != nil {
			slog.Warn("Failed to extract page text, substituting empty page.", "page", i, "error", err)
		}
		pages = append(pages, text)
	}
	res.Text = dropInvalid(joinPages(pages))
	return res
}

// openPDF parses content, falling back to a pdfcpu-optimized copy when the
// embedded cross-reference data cannot be read.
func openPDF(content []byte) (*pdf.Reader, error) {
	r, err := newReader(content)
	if err == nil {
		return r, nil
	}

	repaired, rerr := repairPDF(content)
	if rerr != nil {
		return nil, fmt.Errorf("failed to open pdf: %w (repair: %v)", err, rerr)
	}
	r, err = newReader(repaired)
	if err != nil {
		return nil, fmt.Errorf("failed to open repaired pdf: %w", err)
	}
	return r, nil
}

func newReader(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("pdf reader panic: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

func repairPDF(content []byte) (repaired []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			repaired, err = nil, fmt.Errorf("pdfcpu panic: %v", p)
		}
	}()
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(content), &out, cfg); err != nil {
		return nil, fmt.Errorf("failed to optimize PDF: %w", err)
	}
	return out.Bytes(), nil
}

// pageText extracts one page. Null pages and pages whose content streams
// cannot be interpreted yield an empty string.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, p)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	if err := checkPageContents(page); err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return text, nil
}

func joinPages(pages []string) string {
	return strings.Join(pages, pageSeparator)
}
