// Package firestore adapts the remote ledger ports to Cloud Firestore via
// the generated REST client. Entries live in two top-level collections,
// transactions and recurrings, keyed by the server-assigned document id.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/estexav/Flowly/internal/core"
	"github.com/estexav/Flowly/internal/ledger"

	gfs "google.golang.org/api/firestore/v1"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
)

const (
	transactionsCollection = "transactions"
	recurringsCollection   = "recurrings"
)

type Client struct {
	svc       *gfs.Service
	projectID string
}

// Ensure interface conformance
var _ ledger.Client = (*Client)(nil)

// New creates a Firestore-backed ledger client. credentialsFile may be empty,
// in which case application default credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Client, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("missing firestore project id")
	}

	opts := []goption.ClientOption{}
	if credentialsFile != "" {
		opts = append(opts, goption.WithCredentialsFile(credentialsFile))
	}
	svc, err := gfs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore service: %w", err)
	}

	return &Client{svc: svc, projectID: projectID}, nil
}

func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/databases/(default)/documents", c.projectID)
}

func (c *Client) docName(collection, id string) string {
	return fmt.Sprintf("%s/%s/%s", c.parent(), collection, id)
}

func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	doc := &gfs.Document{Fields: transactionFields(tx)}
	created, err := c.svc.Projects.Databases.Documents.
		CreateDocument(c.parent(), transactionsCollection, doc).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create transaction document: %w", err)
	}
	return docID(created.Name), nil
}

func (c *Client) CreateRecurring(ctx context.Context, rule core.RecurringRule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	doc := &gfs.Document{Fields: recurringFields(rule)}
	created, err := c.svc.Projects.Databases.Documents.
		CreateDocument(c.parent(), recurringsCollection, doc).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create recurring document: %w", err)
	}
	return docID(created.Name), nil
}

func (c *Client) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	docs, err := c.queryByUser(ctx, transactionsCollection, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	out := []core.Transaction{}
	for _, doc := range docs {
		out = append(out, transactionFromDoc(doc))
	}
	// Remote ordering is not guaranteed; newest first matches how the
	// movement list is displayed.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (c *Client) ListRecurrings(ctx context.Context, userID string) ([]core.RecurringRule, error) {
	docs, err := c.queryByUser(ctx, recurringsCollection, userID)
	if err != nil {
		return nil, fmt.Errorf("query recurrings: %w", err)
	}
	out := []core.RecurringRule{}
	for _, doc := range docs {
		out = append(out, recurringFromDoc(doc))
	}
	return out, nil
}

func (c *Client) GetTransaction(ctx context.Context, id string) (*core.Transaction, error) {
	doc, err := c.svc.Projects.Databases.Documents.
		Get(c.docName(transactionsCollection, id)).
		Context(ctx).Do()
	if err != nil {
		return nil, mapErr("get transaction", err)
	}
	tx := transactionFromDoc(doc)
	return &tx, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, patch map[string]any) error {
	return c.patchDoc(ctx, transactionsCollection, id, patch)
}

func (c *Client) UpdateRecurring(ctx context.Context, id string, patch map[string]any) error {
	return c.patchDoc(ctx, recurringsCollection, id, patch)
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	_, err := c.svc.Projects.Databases.Documents.
		Delete(c.docName(transactionsCollection, id)).
		Context(ctx).Do()
	if err != nil {
		return mapErr("delete transaction", err)
	}
	return nil
}

func (c *Client) DeleteRecurring(ctx context.Context, id string) error {
	_, err := c.svc.Projects.Databases.Documents.
		Delete(c.docName(recurringsCollection, id)).
		Context(ctx).Do()
	if err != nil {
		return mapErr("delete recurring", err)
	}
	return nil
}

func (c *Client) queryByUser(ctx context.Context, collection, userID string) ([]*gfs.Document, error) {
	req := &gfs.RunQueryRequest{
		StructuredQuery: &gfs.StructuredQuery{
			From: []*gfs.CollectionSelector{{CollectionId: collection}},
			Where: &gfs.Filter{
				FieldFilter: &gfs.FieldFilter{
					Field: &gfs.FieldReference{FieldPath: "userId"},
					Op:    "EQUAL",
					Value: strVal(userID),
				},
			},
		},
	}
	resp, err := c.svc.Projects.Databases.Documents.
		RunQuery(c.parent(), req).
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	var docs []*gfs.Document
	for _, r := range resp {
		if r.Document != nil {
			docs = append(docs, r.Document)
		}
	}
	return docs, nil
}

// patchDoc updates only the named fields. The update mask keeps untouched
// fields intact so concurrent writers do not clobber each other.
func (c *Client) patchDoc(ctx context.Context, collection, id string, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	fields := map[string]gfs.Value{}
	paths := make([]string, 0, len(patch))
	for k, v := range patch {
		fields[k] = *anyVal(v)
		paths = append(paths, k)
	}
	sort.Strings(paths)

	_, err := c.svc.Projects.Databases.Documents.
		Patch(c.docName(collection, id), &gfs.Document{Fields: fields}).
		UpdateMaskFieldPaths(paths...).
		CurrentDocumentExists(true).
		Context(ctx).Do()
	if err != nil {
		return mapErr("patch document", err)
	}
	return nil
}

func mapErr(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return ledger.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// docID extracts the trailing segment of a full document resource name.
func docID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func transactionFields(tx core.Transaction) map[string]gfs.Value {
	return map[string]gfs.Value{
		"userId":      *strVal(tx.UserID),
		"amount":      *numVal(tx.Amount),
		"description": *strVal(tx.Description),
		"type":        *strVal(string(tx.Type)),
		"category":    *strVal(tx.Category),
		"date":        *strVal(tx.Date.String()),
		"timestamp":   *timeVal(tx.Timestamp),
	}
}

func recurringFields(rule core.RecurringRule) map[string]gfs.Value {
	return map[string]gfs.Value{
		"userId":      *strVal(rule.UserID),
		"amount":      *numVal(rule.Amount),
		"description": *strVal(rule.Description),
		"type":        *strVal(string(rule.Type)),
		"category":    *strVal(rule.Category),
		"frequency":   *strVal(string(rule.Frequency)),
		"startDate":   *strVal(rule.StartDate.String()),
		"active":      *boolVal(rule.Active),
	}
}

func transactionFromDoc(doc *gfs.Document) core.Transaction {
	tx := core.Transaction{
		ID:          docID(doc.Name),
		UserID:      fieldString(doc, "userId"),
		Amount:      fieldNumber(doc, "amount"),
		Description: fieldString(doc, "description"),
		Type:        core.EntryType(fieldString(doc, "type")),
		Category:    fieldString(doc, "category"),
		Timestamp:   fieldTime(doc, "timestamp"),
	}
	if d, err := core.ParseDate(fieldString(doc, "date")); err == nil {
		tx.Date = d
	}
	return tx
}

func recurringFromDoc(doc *gfs.Document) core.RecurringRule {
	rule := core.RecurringRule{
		ID:          docID(doc.Name),
		UserID:      fieldString(doc, "userId"),
		Amount:      fieldNumber(doc, "amount"),
		Description: fieldString(doc, "description"),
		Type:        core.EntryType(fieldString(doc, "type")),
		Category:    fieldString(doc, "category"),
		Frequency:   core.Frequency(fieldString(doc, "frequency")),
		Active:      fieldBool(doc, "active"),
	}
	if d, err := core.ParseDate(fieldString(doc, "startDate")); err == nil {
		rule.StartDate = d
	}
	return rule
}

func strVal(s string) *gfs.Value {
	return &gfs.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func numVal(f float64) *gfs.Value {
	return &gfs.Value{DoubleValue: f, ForceSendFields: []string{"DoubleValue"}}
}

func boolVal(b bool) *gfs.Value {
	return &gfs.Value{BooleanValue: b, ForceSendFields: []string{"BooleanValue"}}
}

func timeVal(t time.Time) *gfs.Value {
	return &gfs.Value{TimestampValue: t.UTC().Format(time.RFC3339Nano)}
}

func anyVal(v any) *gfs.Value {
	switch x := v.(type) {
	case string:
		return strVal(x)
	case float64:
		return numVal(x)
	case int:
		return numVal(float64(x))
	case bool:
		return boolVal(x)
	case time.Time:
		return timeVal(x)
	default:
		return strVal(fmt.Sprint(x))
	}
}

func fieldString(doc *gfs.Document, name string) string {
	if v, ok := doc.Fields[name]; ok {
		return v.StringValue
	}
	return ""
}

func fieldNumber(doc *gfs.Document, name string) float64 {
	if v, ok := doc.Fields[name]; ok {
		if v.DoubleValue != 0 {
			return v.DoubleValue
		}
		if v.IntegerValue != "" {
			var n float64
			fmt.Sscan(v.IntegerValue, &n)
			return n
		}
	}
	return 0
}

func fieldBool(doc *gfs.Document, name string) bool {
	if v, ok := doc.Fields[name]; ok {
		return v.BooleanValue
	}
	return false
}

func fieldTime(doc *gfs.Document, name string) time.Time {
	if v, ok := doc.Fields[name]; ok && v.TimestampValue != "" {
		if t, err := time.Parse(time.RFC3339Nano, v.TimestampValue); err == nil {
			return t
		}
	}
	return time.Time{}
}
