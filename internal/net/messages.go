package net

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"fenrir/internal/amm"
	"fenrir/internal/common"
	dec "fenrir/internal/decimal"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short")
	ErrInvalidUUID        = errors.New("invalid uuid")
)

type MessageType int

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	LogBook
	Swap
	Quote
)

type ReportMessageType int

const (
	ExecutionReport ReportMessageType = iota
	ErrorReport
	SwapReport
	QuoteReport
)

type Message interface {
	GetType() MessageType
}

const baseMessageHeaderLen = 2

// BaseMessage carries the 2-byte type tag every wire message leads with.
type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType {
	return m.TypeOf
}

func parseMessage(msg []byte) (Message, error) {
	if len(msg) < baseMessageHeaderLen {
		return BaseMessage{}, ErrMessageTooShort
	}

	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case LogBook:
		return BaseMessage{TypeOf: LogBook}, nil
	case Swap:
		return parseSwap(body)
	case Quote:
		return parseQuote(body)
	default:
		return BaseMessage{}, ErrInvalidMessageType
	}
}

// readString reads a uint16 length prefix followed by that many bytes.
// Variable-length fields (tickers, decimal amounts, usernames) are all
// encoded this way rather than packed into fixed-width slots, since decimal
// string representations don't have a natural fixed width.
func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", ErrMessageTooShort
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrMessageTooShort
	}
	return string(buf), nil
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func readDecimal(r *bytes.Reader) (dec.D, error) {
	s, err := readString(r)
	if err != nil {
		return dec.Zero, err
	}
	value, err := dec.Parse(s)
	if err != nil {
		return dec.Zero, ErrMessageTooShort
	}
	return value, nil
}

// NewOrderMessage requests a new order be placed on the book.
type NewOrderMessage struct {
	BaseMessage
	AssetType  common.AssetType
	OrderType  common.OrderType
	Ticker     string
	LimitPrice dec.D
	Quantity   dec.D
	Side       common.Side
	Username   string
}

func (o *NewOrderMessage) Order() (common.Order, error) {
	return common.Order{
		UUID:          uuid.New(),
		AssetType:     o.AssetType,
		OrderType:     o.OrderType,
		Ticker:        o.Ticker,
		Side:          o.Side,
		LimitPrice:    o.LimitPrice,
		Quantity:      o.Quantity,
		TotalQuantity: o.Quantity,
		Owner:         o.Username,
	}, nil
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	r := bytes.NewReader(msg)
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}

	var assetType, orderType uint16
	var side uint8
	if err := binary.Read(r, binary.BigEndian, &assetType); err != nil {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	if err := binary.Read(r, binary.BigEndian, &orderType); err != nil {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	if err := binary.Read(r, binary.BigEndian, &side); err != nil {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.AssetType = common.AssetType(assetType)
	m.OrderType = common.OrderType(orderType)
	m.Side = common.Side(side)

	ticker, err := readString(r)
	if err != nil {
		return NewOrderMessage{}, err
	}
	m.Ticker = ticker

	price, err := readDecimal(r)
	if err != nil {
		return NewOrderMessage{}, err
	}
	m.LimitPrice = price

	qty, err := readDecimal(r)
	if err != nil {
		return NewOrderMessage{}, err
	}
	m.Quantity = qty

	username, err := readString(r)
	if err != nil {
		return NewOrderMessage{}, err
	}
	m.Username = username

	return m, nil
}

// CancelOrderMessage requests the order with OrderUUID be pulled off the
// book. It carries no ticker: the engine resolves the owning book by uuid
// alone (an inherited wire-format limitation, not a new design choice).
type CancelOrderMessage struct {
	BaseMessage
	AssetType common.AssetType
	OrderUUID uuid.UUID
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < 2+16 {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.AssetType = common.AssetType(binary.BigEndian.Uint16(msg[0:2]))

	id, err := uuid.FromBytes(msg[2:18])
	if err != nil {
		return CancelOrderMessage{}, ErrInvalidUUID
	}
	m.OrderUUID = id

	return m, nil
}

// SwapMessage requests an AMM swap against the TokenA/TokenB pool.
type SwapMessage struct {
	BaseMessage
	TokenA      string
	TokenB      string
	InputToken  string
	InputAmount dec.D
	MinOutput   dec.D
	Username    string
}

func parseSwap(msg []byte) (SwapMessage, error) {
	r := bytes.NewReader(msg)
	m := SwapMessage{BaseMessage: BaseMessage{TypeOf: Swap}}

	fields := []*string{&m.TokenA, &m.TokenB, &m.InputToken}
	for _, f := range fields {
		s, err := readString(r)
		if err != nil {
			return SwapMessage{}, err
		}
		*f = s
	}

	inputAmount, err := readDecimal(r)
	if err != nil {
		return SwapMessage{}, err
	}
	m.InputAmount = inputAmount

	minOutput, err := readDecimal(r)
	if err != nil {
		return SwapMessage{}, err
	}
	m.MinOutput = minOutput

	username, err := readString(r)
	if err != nil {
		return SwapMessage{}, err
	}
	m.Username = username

	return m, nil
}

// QuoteMessage requests a dry-run swap preview.
type QuoteMessage struct {
	BaseMessage
	TokenA      string
	TokenB      string
	InputToken  string
	InputAmount dec.D
}

func parseQuote(msg []byte) (QuoteMessage, error) {
	r := bytes.NewReader(msg)
	m := QuoteMessage{BaseMessage: BaseMessage{TypeOf: Quote}}

	fields := []*string{&m.TokenA, &m.TokenB, &m.InputToken}
	for _, f := range fields {
		s, err := readString(r)
		if err != nil {
			return QuoteMessage{}, err
		}
		*f = s
	}

	inputAmount, err := readDecimal(r)
	if err != nil {
		return QuoteMessage{}, err
	}
	m.InputAmount = inputAmount

	return m, nil
}

// Report is the generic wire reply: trade fills, errors, and swap/quote
// results all serialize through this one shape, with unused fields left at
// their zero value.
type Report struct {
	MessageType  ReportMessageType
	AssetType    common.AssetType
	Side         common.Side
	Timestamp    uint64
	Ticker       string
	UUID         uuid.UUID
	Quantity     dec.D
	Price        dec.D
	Counterparty string
	Err          string
	OutputAmount dec.D
	PriceImpact  dec.D
	FeeAmount    dec.D
}

// Serialize converts the report to its wire form.
func (r *Report) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(r.MessageType))
	buf.WriteByte(byte(r.AssetType))
	buf.WriteByte(byte(r.Side))
	binary.Write(buf, binary.BigEndian, r.Timestamp)
	writeString(buf, r.Ticker)
	buf.Write(r.UUID[:])
	writeString(buf, r.Quantity.String())
	writeString(buf, r.Price.String())
	writeString(buf, r.Counterparty)
	writeString(buf, r.Err)
	writeString(buf, r.OutputAmount.String())
	writeString(buf, r.PriceImpact.String())
	writeString(buf, r.FeeAmount.String())
	return buf.Bytes(), nil
}

// generateWireTradeReports produces one execution report for the taker and
// one for the resting maker side of a fill. A trade never carries the
// maker's full Order (spec.md §3), so the maker's report is reconstructed
// from the taker's market context (ticker, asset type) plus the maker's
// owner name, which the caller resolves separately.
func generateWireTradeReports(taker common.Order, makerOwner string, t common.Trade) ([]byte, []byte, error) {
	makerSide := common.Sell
	if taker.Side == common.Sell {
		makerSide = common.Buy
	}

	takerReport := Report{
		MessageType:  ExecutionReport,
		AssetType:    taker.AssetType,
		Side:         taker.Side,
		Timestamp:    uint64(t.CreatedAt.Unix()),
		Ticker:       taker.Ticker,
		UUID:         taker.UUID,
		Quantity:     t.Quantity,
		Price:        t.Price,
		Counterparty: makerOwner,
	}
	makerReport := Report{
		MessageType:  ExecutionReport,
		AssetType:    taker.AssetType,
		Side:         makerSide,
		Timestamp:    uint64(t.CreatedAt.Unix()),
		Ticker:       taker.Ticker,
		UUID:         t.MakerOrderID,
		Quantity:     t.Quantity,
		Price:        t.Price,
		Counterparty: taker.Owner,
	}

	b1, err := takerReport.Serialize()
	if err != nil {
		return nil, nil, err
	}
	b2, err := makerReport.Serialize()
	if err != nil {
		return nil, nil, err
	}
	return b1, b2, nil
}

func generateWireErrorReport(err error) ([]byte, error) {
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		Err:         fmt.Sprintf("%v", err),
	}
	return report.Serialize()
}

func generateWireSwapReport(result amm.SwapResult) ([]byte, error) {
	report := Report{
		MessageType:  SwapReport,
		Timestamp:    uint64(time.Now().UnixNano()),
		Quantity:     result.InputAmount,
		OutputAmount: result.OutputAmount,
		PriceImpact:  result.PriceImpact,
		FeeAmount:    result.FeeAmount,
	}
	return report.Serialize()
}

func generateWireQuoteReport(result amm.SwapResult) ([]byte, error) {
	report := Report{
		MessageType:  QuoteReport,
		Timestamp:    uint64(time.Now().UnixNano()),
		Quantity:     result.InputAmount,
		OutputAmount: result.OutputAmount,
		PriceImpact:  result.PriceImpact,
		FeeAmount:    result.FeeAmount,
	}
	return report.Serialize()
}
