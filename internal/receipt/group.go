package receipt

import (
	"errors"
	"slices"
	"strings"
)

// Grouping is the result of folding a flat document list into bundles.
type Grouping struct {
	Bundles  []Bundle
	Rejected []*ValidationError
}

// Err joins the rejected documents into a single error, or returns nil when
// every document was grouped.
func (g Grouping) Err() error {
	if len(g.Rejected) == 0 {
		return nil
	}

	errs := make([]error, len(g.Rejected))
	for i, r := range g.Rejected {
		errs[i] = r
	}

	return errors.Join(errs...)
}

// Group folds documents into one bundle per receipt number.
//
// Documents are processed in input order: a later document with the same
// receipt number and role replaces the earlier one. Invalid documents are
// skipped and reported in Rejected. Bundles are ordered by their most recent
// upload, newest first, keeping first-seen order on ties. Receipt numbers are
// compared with surrounding whitespace removed.
func Group(docs []Document) Grouping {
	index := make(map[string]int, len(docs))
	bundles := make([]Bundle, 0, len(docs))

	var rejected []*ValidationError

	for _, doc := range docs {
		if v := validate(doc); v != nil {
			rejected = append(rejected, v)
			continue
		}

		key := strings.TrimSpace(doc.ReceiptNumber)

		i, found := index[key]
		if !found {
			i = len(bundles)
			index[key] = i

			bundles = append(bundles, Bundle{
				ReceiptNumber:    key,
				MostRecentUpload: doc.UploadedAt,
			})
		} else if doc.UploadedAt.After(bundles[i].MostRecentUpload) {
			bundles[i].MostRecentUpload = doc.UploadedAt
		}

		bundles[i].assign(doc)
	}

	slices.SortStableFunc(bundles, func(a, b Bundle) int {
		return b.MostRecentUpload.Compare(a.MostRecentUpload)
	})

	return Grouping{Bundles: bundles, Rejected: rejected}
}
