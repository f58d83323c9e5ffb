package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/auditmagic/internal/export"
	"github.com/erazemk/auditmagic/internal/inventory"
	"github.com/erazemk/auditmagic/internal/model"
	"github.com/erazemk/auditmagic/internal/store"
)

// TransactionsHandler handles the audit log endpoints.
type TransactionsHandler struct {
	Svc *inventory.Service
}

const dateLayout = "2006-01-02"

// parseTransactionFilter reads ?type_id= (repeatable or comma separated),
// ?from=, ?to= and ?limit=. Dates are RFC 3339 or YYYY-MM-DD; a bare "to"
// date covers that whole day.
func parseTransactionFilter(r *http.Request) (store.TransactionFilter, error) {
	var f store.TransactionFilter
	q := r.URL.Query()

	for _, raw := range q["type_id"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return f, fmt.Errorf("invalid type_id %q", part)
			}
			f.TypeIDs = append(f.TypeIDs, id)
		}
	}

	var err error
	if f.From, err = parseTime(q.Get("from"), false); err != nil {
		return f, fmt.Errorf("invalid from: %w", err)
	}
	if f.To, err = parseTime(q.Get("to"), true); err != nil {
		return f, fmt.Errorf("invalid to: %w", err)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to is before from")
	}

	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 or %s", dateLayout)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return t, nil
}

// List handles GET /api/transactions.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	var txs []model.Transaction
	if len(f.TypeIDs) == 0 && f.From.IsZero() && f.To.IsZero() {
		txs, err = store.ListRecentTransactions(r.Context(), h.Svc.DB, f.Limit)
	} else {
		txs, err = store.ListTransactions(r.Context(), h.Svc.DB, f)
	}
	if err != nil {
		storeError(w, err, "list transactions")
		return
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, txs)
}

// Export handles GET /api/transactions/export. It accepts the same filters
// as List and returns an XLSX workbook with the current inventory and the
// matching transactions.
func (h *TransactionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := parseTransactionFilter(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := store.ListItems(r.Context(), h.Svc.DB)
	if err != nil {
		storeError(w, err, "list items")
		return
	}
	txs, err := store.ListTransactions(r.Context(), h.Svc.DB, f)
	if err != nil {
		storeError(w, err, "list transactions")
		return
	}

	filename := fmt.Sprintf("auditmagic-%s.xlsx", time.Now().Format(dateLayout))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteReport(w, items, txs); err != nil {
		// Headers are gone; all that is left is to log.
		slog.Error("failed to write export", "error", err)
		return
	}
	slog.Info("transactions exported", "user", actorName(r), "items", len(items), "transactions", len(txs))
}
