package console

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"motorplus/internal/apierror"
	"motorplus/internal/dto"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

const maxErrorBody = 64 << 10

func defaultHTTPClient() *http.Client { return &http.Client{Timeout: 30 * time.Second} }

// Client makes typed calls to the REST store on behalf of a session.
type Client struct {
	session *Session
	http    *http.Client
}

func NewClient(s *Session, hc *http.Client) *Client {
	if hc == nil {
		hc = defaultHTTPClient()
	}
	return &Client{session: s, http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	token, err := c.session.bearer()
	if err != nil {
		return err
	}
	target := c.session.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return roundTrip(ctx, c.http, method, target, token, in, out)
}

// roundTrip sends one request. Error bodies are decoded back into
// *apierror.Error so the server's kind survives the wire.
func roundTrip(ctx context.Context, hc *http.Client, method, target, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, req.URL.Path)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env apierror.APIError
	if json.Unmarshal(raw, &env) == nil {
		if kind, ok := apierror.ParseKind(string(env.Code)); ok {
			return &apierror.Error{Kind: kind, Detail: env.Detail}
		}
	}
	detail := env.Detail
	if detail == "" {
		detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return apierror.E(apierror.KindUnauthorized, "%s", detail)
	case http.StatusNotFound:
		return apierror.E(apierror.KindNotFound, "%s", detail)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apierror.E(apierror.KindValidation, "%s", detail)
	}
	return apierror.E(apierror.KindInternal, "%s", detail)
}

// call decodes a single resource.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, in any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, query, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// value decodes a collection or envelope by value.
func value[T any](ctx context.Context, c *Client, method, path string, query url.Values, in any) (T, error) {
	var out T
	if err := c.do(ctx, method, path, query, in, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// listAll walks a paged collection to its end.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	out := []T{}
	for page := 0; ; page++ {
		p, err := value[dto.Page[T]](ctx, c, http.MethodGet, path, pageQuery(page, dto.MaxPageSize), nil)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Content...)
		if len(p.Content) == 0 || page+1 >= p.TotalPages {
			return out, nil
		}
	}
}

func orderPath(id uuid.UUID) string { return "/api/orders/" + id.String() }

func itemPath(orderID, itemID uuid.UUID) string {
	return orderPath(orderID) + "/items/" + itemID.String()
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	return q
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (c *Client) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	return call[dto.OrderResponse](ctx, c, http.MethodPost, "/api/orders", nil, req)
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*dto.OrderResponse, error) {
	return call[dto.OrderResponse](ctx, c, http.MethodGet, orderPath(id), nil, nil)
}

func (c *Client) ChangeStatus(ctx context.Context, id uuid.UUID, status string) (*dto.OrderResponse, error) {
	q := url.Values{"status": {status}}
	return call[dto.OrderResponse](ctx, c, http.MethodPost, orderPath(id)+"/status", q, nil)
}

func (c *Client) ListItems(ctx context.Context, orderID uuid.UUID) ([]dto.OrderItemResponse, error) {
	return listAll[dto.OrderItemResponse](ctx, c, orderPath(orderID)+"/items")
}

func (c *Client) AddItem(ctx context.Context, orderID uuid.UUID, req dto.AddItemRequest) (*dto.OrderItemResponse, error) {
	return call[dto.OrderItemResponse](ctx, c, http.MethodPost, orderPath(orderID)+"/items", nil, req)
}

func (c *Client) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, itemPath(orderID, itemID), nil, nil, nil)
}

func (c *Client) ListAssignments(ctx context.Context, orderID, itemID uuid.UUID) ([]dto.AssignmentResponse, error) {
	return listAll[dto.AssignmentResponse](ctx, c, itemPath(orderID, itemID)+"/assignments")
}

func (c *Client) AddAssignment(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddAssignmentRequest) (*dto.AssignmentResponse, error) {
	return call[dto.AssignmentResponse](ctx, c, http.MethodPost, itemPath(orderID, itemID)+"/assignments", nil, req)
}

func (c *Client) ListPartUsages(ctx context.Context, orderID, itemID uuid.UUID) ([]dto.PartUsageResponse, error) {
	return listAll[dto.PartUsageResponse](ctx, c, itemPath(orderID, itemID)+"/parts")
}

func (c *Client) AddPartUsage(ctx context.Context, orderID, itemID uuid.UUID, req dto.AddPartUsageRequest) (*dto.PartUsageResponse, error) {
	return call[dto.PartUsageResponse](ctx, c, http.MethodPost, itemPath(orderID, itemID)+"/parts", nil, req)
}

func (c *Client) RemovePartUsage(ctx context.Context, orderID, itemID, partID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, itemPath(orderID, itemID)+"/parts/"+partID.String(), nil, nil, nil)
}

// ── Parts ────────────────────────────────────────────────────────────────────

func (c *Client) GetStock(ctx context.Context, partID uuid.UUID) (int, error) {
	var out dto.StockResponse
	if err := c.do(ctx, http.MethodGet, "/api/parts/"+partID.String()+"/stock", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Stock, nil
}

// ── Supervisions ─────────────────────────────────────────────────────────────

func (c *Client) ListSupervisions(ctx context.Context, orderID uuid.UUID, page, size int) (dto.Page[dto.SupervisionResponse], error) {
	q := pageQuery(page, size)
	q.Set("orderId", orderID.String())
	return value[dto.Page[dto.SupervisionResponse]](ctx, c, http.MethodGet, "/api/supervisions", q, nil)
}

func (c *Client) CreateSupervision(ctx context.Context, req dto.CreateSupervisionRequest) (*dto.SupervisionResponse, error) {
	return call[dto.SupervisionResponse](ctx, c, http.MethodPost, "/api/supervisions", nil, req)
}

func (c *Client) DeleteSupervision(ctx context.Context, key dto.SupervisionKey) error {
	q := url.Values{
		"supervisorId": {key.SupervisorID},
		"supervisedId": {key.SupervisedID},
		"orderId":      {key.OrderID},
	}
	return c.do(ctx, http.MethodDelete, "/api/supervisions", q, nil, nil)
}

// ── Invoices ─────────────────────────────────────────────────────────────────

func (c *Client) InvoiceFromOrder(ctx context.Context, orderID uuid.UUID) (*dto.InvoiceResponse, error) {
	return call[dto.InvoiceResponse](ctx, c, http.MethodPost, "/api/invoices/from-order/"+orderID.String(), nil, nil)
}

func (c *Client) InvoiceLines(ctx context.Context, invoiceID uuid.UUID) ([]dto.InvoiceLineResponse, error) {
	return listAll[dto.InvoiceLineResponse](ctx, c, "/api/invoices/"+invoiceID.String()+"/lines")
}

// ── Reports ──────────────────────────────────────────────────────────────────

func (c *Client) report(ctx context.Context, kind dto.ReportKind, q url.Values) (json.RawMessage, error) {
	return value[json.RawMessage](ctx, c, http.MethodGet, "/api/reports/"+url.PathEscape(string(kind)), q, nil)
}
