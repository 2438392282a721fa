package awaken

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/providers"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SignalR JSON hub protocol framing.
const (
	recordSeparator = 0x1e

	hubInvocation = 1
	hubCompletion = 3
	hubPing       = 6
	hubClose      = 7
)

// KlineFeed fetches candles from the Awaken trade hub. Each call opens a
// dedicated connection, sends one RequestKline invocation and returns on
// the first ReceiveKlines push.
type KlineFeed struct {
	http      *httpx.Client
	socketURL string
	dialer    *websocket.Dialer
	log       *zap.Logger
}

func NewKlineFeed(httpClient *httpx.Client, socketURL string, log *zap.Logger) *KlineFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &KlineFeed{
		http:      httpClient,
		socketURL: strings.TrimSuffix(socketURL, "/"),
		dialer:    websocket.DefaultDialer,
		log:       log,
	}
}

func (f *KlineFeed) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:         "awaken-hub",
		Type:         "stream",
		Endpoint:     f.socketURL,
		RequiresKey:  false,
		Capabilities: []string{"kline.fetch"},
	}
}

var _ providers.KlineProvider = (*KlineFeed)(nil)

type negotiateResponse struct {
	ConnectionID        string `json:"connectionId"`
	ConnectionToken     string `json:"connectionToken"`
	AvailableTransports []struct {
		Transport string `json:"transport"`
	} `json:"availableTransports"`
}

type hubMessage struct {
	Type         int               `json:"type"`
	Target       string            `json:"target,omitempty"`
	InvocationID string            `json:"invocationId,omitempty"`
	Arguments    []json.RawMessage `json:"arguments,omitempty"`
	Error        string            `json:"error,omitempty"`
}

type hubInvocationMessage struct {
	Type         int    `json:"type"`
	Target       string `json:"target"`
	InvocationID string `json:"invocationId"`
	Arguments    []any  `json:"arguments"`
}

// Klines returns bars sorted by time. Cancellation or a deadline on ctx
// aborts the read and surfaces ctx.Err().
func (f *KlineFeed) Klines(ctx context.Context, req providers.KlineRequest) ([]model.KlineBar, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	hub := &hubReader{conn: conn}
	if err := hub.handshake(); err != nil {
		return nil, f.readError(ctx, "kline hub handshake", err)
	}
	const invocationID = "0"
	msg := hubInvocationMessage{
		Type:         hubInvocation,
		Target:       registry.SignalRKlineRequest,
		InvocationID: invocationID,
		Arguments:    []any{req.ChainID, req.PairID, req.PeriodSeconds, req.FromMS, req.ToMS},
	}
	if err := hub.write(msg); err != nil {
		return nil, f.readError(ctx, "send kline request", err)
	}
	f.log.Debug("kline requested",
		zap.String("pair_id", req.PairID),
		zap.Int64("period_seconds", req.PeriodSeconds),
		zap.Int64("from_ms", req.FromMS),
		zap.Int64("to_ms", req.ToMS),
	)

	for {
		frame, err := hub.next()
		if err != nil {
			return nil, f.readError(ctx, "read kline hub", err)
		}
		var m hubMessage
		if err := json.Unmarshal(frame, &m); err != nil {
			return nil, clierr.Wrap(clierr.CodeUnavailable, "decode kline hub message", err)
		}
		switch m.Type {
		case hubPing:
		case hubClose:
			return nil, clierr.Newf(clierr.CodeUnavailable, "kline hub closed the connection: %s", m.Error)
		case hubCompletion:
			if m.InvocationID == invocationID && m.Error != "" {
				return nil, clierr.Newf(clierr.CodeUnavailable, "kline request failed: %s", m.Error)
			}
		case hubInvocation:
			if m.Target != registry.SignalRKlineReceive {
				continue
			}
			if len(m.Arguments) == 0 {
				return []model.KlineBar{}, nil
			}
			bars, err := decodeBars(m.Arguments[0])
			if err != nil {
				return nil, clierr.Wrap(clierr.CodeUnavailable, "Failed to parse K-line data", err)
			}
			f.log.Debug("kline received", zap.String("pair_id", req.PairID), zap.Int("bars", len(bars)))
			return bars, nil
		}
	}
}

func (f *KlineFeed) connect(ctx context.Context) (*websocket.Conn, error) {
	var neg negotiateResponse
	if _, err := httpx.DoBodyJSON(ctx, f.http, http.MethodPost, f.socketURL+"/negotiate?negotiateVersion=1", nil, nil, &neg); err != nil {
		return nil, err
	}
	if len(neg.AvailableTransports) > 0 {
		supported := false
		for _, t := range neg.AvailableTransports {
			if strings.EqualFold(t.Transport, "WebSockets") {
				supported = true
			}
		}
		if !supported {
			return nil, clierr.New(clierr.CodeUnsupported, "kline hub does not offer a websocket transport")
		}
	}
	token := neg.ConnectionToken
	if token == "" {
		token = neg.ConnectionID
	}
	target, err := websocketURL(f.socketURL, token)
	if err != nil {
		return nil, err
	}
	conn, _, err := f.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, clierr.Wrap(clierr.CodeUnavailable, "SignalR connection failed", err)
	}
	f.log.Debug("kline hub connected", zap.String("endpoint", f.socketURL))
	return conn, nil
}

func (f *KlineFeed) readError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return clierr.Wrap(clierr.CodeUnavailable, op, err)
}

func websocketURL(socketURL, token string) (string, error) {
	u, err := url.Parse(socketURL)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "invalid socket url", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	if token != "" {
		q := u.Query()
		q.Set("id", token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// hubReader splits websocket messages into record-separated frames.
type hubReader struct {
	conn    *websocket.Conn
	pending [][]byte
}

func (h *hubReader) handshake() error {
	if err := h.conn.WriteMessage(websocket.TextMessage, append([]byte(`{"protocol":"json","version":1}`), recordSeparator)); err != nil {
		return err
	}
	frame, err := h.next()
	if err != nil {
		return err
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(frame, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return clierr.Newf(clierr.CodeUnavailable, "handshake rejected: %s", resp.Error)
	}
	return nil
}

func (h *hubReader) write(v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.conn.WriteMessage(websocket.TextMessage, append(buf, recordSeparator))
}

func (h *hubReader) next() ([]byte, error) {
	for len(h.pending) == 0 {
		_, data, err := h.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		for _, frame := range bytes.Split(data, []byte{recordSeparator}) {
			if len(bytes.TrimSpace(frame)) > 0 {
				h.pending = append(h.pending, frame)
			}
		}
	}
	frame := h.pending[0]
	h.pending = h.pending[1:]
	return frame, nil
}

type apiBar struct {
	Timestamp       number `json:"timestamp"`
	Time            number `json:"time"`
	Open            number `json:"open"`
	High            number `json:"high"`
	Low             number `json:"low"`
	Close           number `json:"close"`
	OpenWithoutFee  number `json:"openWithoutFee"`
	HighWithoutFee  number `json:"highWithoutFee"`
	LowWithoutFee   number `json:"lowWithoutFee"`
	CloseWithoutFee number `json:"closeWithoutFee"`
	Volume          number `json:"volume"`
}

func (b apiBar) model() model.KlineBar {
	ts := b.Timestamp
	if ts == "" {
		ts = b.Time
	}
	var unix int64
	if d, err := decimal.NewFromString(string(ts)); err == nil {
		unix = d.IntPart()
	}
	return model.KlineBar{
		Time:   unix,
		Open:   preferFeeless(b.OpenWithoutFee, b.Open),
		High:   preferFeeless(b.HighWithoutFee, b.High),
		Low:    preferFeeless(b.LowWithoutFee, b.Low),
		Close:  preferFeeless(b.CloseWithoutFee, b.Close),
		Volume: b.Volume.Float(),
	}
}

func preferFeeless(withoutFee, raw number) float64 {
	if withoutFee != "" {
		return withoutFee.Float()
	}
	return raw.Float()
}

// decodeBars accepts either a bare bar array or an object wrapping it in
// a data field.
func decodeBars(raw json.RawMessage) ([]model.KlineBar, error) {
	var list []apiBar
	trimmed := bytes.TrimSpace(raw)
	switch {
	case bytes.HasPrefix(trimmed, []byte("[")):
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
	case bytes.Equal(trimmed, []byte("null")):
	default:
		var wrapped struct {
			Data []apiBar `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, err
		}
		list = wrapped.Data
	}
	bars := make([]model.KlineBar, 0, len(list))
	for _, b := range list {
		bars = append(bars, b.model())
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time < bars[j].Time })
	return bars, nil
}
