package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"fenrir/internal/common"
	fenrirNet "fenrir/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	owner := flag.String("owner", "", "Owner username (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'log', 'swap', 'quote']")

	ticker := flag.String("ticker", "AAPL", "Ticker symbol")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "Order type: 'limit' or 'market'")
	price := flag.String("price", "100.0", "Limit price")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")

	uuidStr := flag.String("uuid", "", "UUID of the order to cancel")

	tokenA := flag.String("token-a", "ETH", "Pool token A")
	tokenB := flag.String("token-b", "USDC", "Pool token B")
	inputToken := flag.String("input-token", "ETH", "Token being sold in a swap/quote")
	inputAmount := flag.String("amount", "1", "Amount of input-token to swap/quote")
	minOutput := flag.String("min-output", "0", "Minimum acceptable output for a swap")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *owner)

	go readReports(conn)

	side := common.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = common.Sell
	}

	orderType := common.LimitOrder
	if strings.ToLower(*typeStr) == "market" {
		orderType = common.MarketOrder
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, q := range parseQuantities(*qtyStr) {
			if err := sendPlaceOrder(conn, *owner, common.Equities, orderType, *ticker, *price, q, side); err != nil {
				log.Printf("Failed to place order (Qty: %s): %v", q, err)
			} else {
				fmt.Printf("-> Sent %s Order: %s %s @ %s\n", strings.ToUpper(*sideStr), *ticker, q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *uuidStr == "" {
			log.Fatal("Error: -uuid is required for cancellation")
		}
		if err := sendCancelOrder(conn, common.Equities, *uuidStr); err != nil {
			log.Printf("Failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> Sent Cancel Request for UUID: %s\n", *uuidStr)
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("Failed to send log request: %v", err)
		} else {
			fmt.Println("-> Sent Log Request")
		}

	case "swap":
		if err := sendSwap(conn, *owner, *tokenA, *tokenB, *inputToken, *inputAmount, *minOutput); err != nil {
			log.Printf("Failed to send swap request: %v", err)
		} else {
			fmt.Printf("-> Sent Swap Request: %s %s for %s (min out %s)\n", *inputAmount, *inputToken, otherToken(*tokenA, *tokenB, *inputToken), *minOutput)
		}

	case "quote":
		if err := sendQuote(conn, *tokenA, *tokenB, *inputToken, *inputAmount); err != nil {
			log.Printf("Failed to send quote request: %v", err)
		} else {
			fmt.Printf("-> Sent Quote Request: %s %s\n", *inputAmount, *inputToken)
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func otherToken(tokenA, tokenB, input string) string {
	if input == tokenA {
		return tokenB
	}
	return tokenA
}

func parseQuantities(input string) []string {
	parts := strings.Split(input, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := strconv.ParseFloat(p, 64); err == nil {
			result = append(result, p)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
}

func sendPlaceOrder(conn net.Conn, owner string, asset common.AssetType, orderType common.OrderType, ticker, price, qty string, side common.Side) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(fenrirNet.NewOrder))
	binary.Write(buf, binary.BigEndian, uint16(asset))
	binary.Write(buf, binary.BigEndian, uint16(orderType))
	buf.WriteByte(byte(side))
	writeString(buf, ticker)
	writeString(buf, price)
	writeString(buf, qty)
	writeString(buf, owner)

	_, err := conn.Write(buf.Bytes())
	return err
}

func sendCancelOrder(conn net.Conn, asset common.AssetType, orderUUID string) error {
	id, err := parseUUID(orderUUID)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(fenrirNet.CancelOrder))
	binary.Write(buf, binary.BigEndian, uint16(asset))
	buf.Write(id[:])

	_, err = conn.Write(buf.Bytes())
	return err
}

func sendLog(conn net.Conn) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(fenrirNet.LogBook))
	_, err := conn.Write(buf.Bytes())
	return err
}

func sendSwap(conn net.Conn, owner, tokenA, tokenB, inputToken, inputAmount, minOutput string) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(fenrirNet.Swap))
	writeString(buf, tokenA)
	writeString(buf, tokenB)
	writeString(buf, inputToken)
	writeString(buf, inputAmount)
	writeString(buf, minOutput)
	writeString(buf, owner)

	_, err := conn.Write(buf.Bytes())
	return err
}

func sendQuote(conn net.Conn, tokenA, tokenB, inputToken, inputAmount string) error {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, uint16(fenrirNet.Quote))
	writeString(buf, tokenA)
	writeString(buf, tokenB)
	writeString(buf, inputToken)
	writeString(buf, inputAmount)

	_, err := conn.Write(buf.Bytes())
	return err
}

func parseUUID(s string) ([16]byte, error) {
	var id [16]byte
	clean := strings.ReplaceAll(s, "-", "")
	if len(clean) != 32 {
		return id, fmt.Errorf("invalid uuid %q", s)
	}
	for i := 0; i < 16; i++ {
		var b int64
		if _, err := fmt.Sscanf(clean[i*2:i*2+2], "%02x", &b); err != nil {
			return id, fmt.Errorf("invalid uuid %q: %w", s, err)
		}
		id[i] = byte(b)
	}
	return id, nil
}

const reportFixedHeaderLen = 1 + 1 + 1 + 8 // MessageType, AssetType, Side, Timestamp

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedHeaderLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := fenrirNet.ReportMessageType(headerBuf[0])
		side := common.Side(headerBuf[2])

		ticker, err := readLenString(conn)
		if err != nil {
			log.Printf("error reading report: %v", err)
			return
		}
		idBuf := make([]byte, 16)
		if _, err := io.ReadFull(conn, idBuf); err != nil {
			log.Printf("error reading report uuid: %v", err)
			return
		}

		qty, _ := readLenString(conn)
		price, _ := readLenString(conn)
		counterparty, _ := readLenString(conn)
		errStr, _ := readLenString(conn)
		outputAmount, _ := readLenString(conn)
		priceImpact, _ := readLenString(conn)
		feeAmount, _ := readLenString(conn)

		switch msgType {
		case fenrirNet.ErrorReport:
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
		case fenrirNet.SwapReport, fenrirNet.QuoteReport:
			label := "SWAP"
			if msgType == fenrirNet.QuoteReport {
				label = "QUOTE"
			}
			fmt.Printf("\n[%s] in=%s out=%s impact=%s fee=%s\n", label, qty, outputAmount, priceImpact, feeAmount)
		default:
			sideStr := "BUY"
			if side == common.Sell {
				sideStr = "SELL"
			}
			fmt.Printf("\n[EXECUTION] %s %s | Qty: %s | Price: %s | vs: %s | UUID: %x\n",
				sideStr, ticker, qty, price, counterparty, idBuf)
		}
	}
}

func readLenString(conn net.Conn) (string, error) {
	lenBuf := make([]byte, 2)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf)
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
