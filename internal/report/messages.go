package report

import (
	"errors"

	"github.com/mealtrail/mealtrail/internal/cipher"
	"github.com/mealtrail/mealtrail/internal/fetch"
	"github.com/mealtrail/mealtrail/internal/importer"
	"github.com/mealtrail/mealtrail/internal/model"
)

// User-facing messages returned by UserMessage.
const (
	MsgFetchFailed  = "fetch failed, check credentials"
	MsgNoDining     = "no dining transactions found in the selected period"
	MsgMalformedRow = "transaction data is malformed"
)

// UserMessage maps a pipeline error to the short message shown to users.
// Unrecognized errors are returned verbatim.
func UserMessage(err error) string {
	var (
		rowErr *importer.RowError
		svcErr *fetch.ServiceError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, cipher.ErrDecryption),
		errors.Is(err, fetch.ErrMissingCredentials),
		errors.As(err, &svcErr):
		return MsgFetchFailed
	case errors.Is(err, model.ErrEmptyDataset):
		return MsgNoDining
	case errors.As(err, &rowErr):
		return MsgMalformedRow + ": " + rowErr.Error()
	default:
		return err.Error()
	}
}
