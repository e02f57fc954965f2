// Package archive downloads the files of receipt bundles so they can be
// handed to an accountant together with a cover note.
package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/despacho/internal/receipt"
)

// Item links one bundle slot to its downloaded file. FilePath is empty when
// the bundle has no document for Role.
type Item struct {
	ReceiptNumber string
	Role          receipt.Role
	Document      *receipt.Document
	FilePath      string
}

type Service struct {
	client   *http.Client
	apiToken string
}

// NewService creates a Service. apiToken, when set, is sent to the document
// store as "Authorization: Token <apiToken>".
func NewService(apiToken string) *Service {
	return &Service{
		client:   &http.Client{Timeout: 30 * time.Second},
		apiToken: apiToken,
	}
}

var roles = []receipt.Role{receipt.RoleMain, receipt.RoleWithholding, receipt.RoleAttachment}

func slot(b receipt.Bundle, role receipt.Role) *receipt.Document {
	switch role {
	case receipt.RoleMain:
		return b.Main
	case receipt.RoleWithholding:
		return b.Withholding
	case receipt.RoleAttachment:
		return b.Attachment
	}

	return nil
}

// Download stores every document of bundles under outputDir/<receipt number>/.
// Receipt numbers that sanitize to the same directory name get a "-<n>"
// suffix. It returns one Item per bundle and role, in bundle order.
func (s *Service) Download(ctx context.Context, bundles []receipt.Bundle, outputDir string) ([]Item, error) {
	items := make([]Item, 0, len(bundles)*len(roles))
	used := make(map[string]bool, len(bundles))

	for _, b := range bundles {
		dir := filepath.Join(outputDir, dirName(used, b.ReceiptNumber))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}

		paths := make(map[receipt.Role]string, len(roles))

		for _, doc := range b.Documents() {
			if doc.FileURL == "" {
				continue
			}

			file, err := s.download(ctx, doc, dir)
			if err != nil {
				return nil, fmt.Errorf("downloading %s document of receipt %s: %w", doc.Role, b.ReceiptNumber, err)
			}

			paths[doc.Role] = file
		}

		for _, role := range roles {
			items = append(items, Item{
				ReceiptNumber: b.ReceiptNumber,
				Role:          role,
				Document:      slot(b, role),
				FilePath:      paths[role],
			})
		}
	}

	return items, nil
}

func dirName(used map[string]bool, receiptNumber string) string {
	base := sanitize(receiptNumber)
	name := base

	for n := 2; used[name]; n++ {
		name = fmt.Sprintf("%s-%d", base, n)
	}

	used[name] = true

	return name
}

func (s *Service) download(ctx context.Context, doc *receipt.Document, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.FileURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	if s.apiToken != "" {
		req.Header.Set("Authorization", "Token "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, doc.FileURL)
	}

	target := filepath.Join(dir, filename(resp, doc))

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return target, nil
}

// filename prefers the name sent by the document store and falls back to
// <role>_<receipt number>.<ext>.
func filename(resp *http.Response, doc *receipt.Document) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return string(doc.Role) + "_" + strings.ReplaceAll(filepath.Base(name), " ", "_")
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	return fmt.Sprintf("%s_%s%s", doc.Role, sanitize(doc.ReceiptNumber), ext)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, s)
}

// CoverNote lists the downloaded files per receipt, one line per role. Files
// are named relative to the archive root as <directory>/<file>.
func CoverNote(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		file := "Em falta"
		if item.FilePath != "" {
			file = path.Join(filepath.Base(filepath.Dir(item.FilePath)), filepath.Base(item.FilePath))
		} else if item.Document != nil {
			file = "Sem ficheiro"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s\n", item.ReceiptNumber, item.Role, file)
	}

	return sb.String()
}
