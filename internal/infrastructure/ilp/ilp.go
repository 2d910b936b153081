// Package ilp encodes Interledger payment packets and derives the fulfilment/condition pair that
// locks a transfer to the quote it was issued for.
package ilp

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mufasadev/lps-adaptor/internal/domain/models"
	"github.com/mufasadev/lps-adaptor/internal/domain/mojaloop"
	"github.com/shopspring/decimal"
)

const (
	typePayment    = 1
	addressPrefix  = "g"
	amountScale    = 4
	fulfilmentSize = sha256.Size
)

var encoding = base64.RawURLEncoding

type ILP struct {
	secret []byte
}

func New(secret string) *ILP {
	return &ILP{secret: []byte(base64.StdEncoding.EncodeToString([]byte(secret)))}
}

// GetQuoteResponseIlp builds the packet for a quote response and the condition a transfer must satisfy.
func (i *ILP) GetQuoteResponseIlp(transaction mojaloop.IlpTransaction, transferAmount models.Money) (string, string, error) {
	data, err := json.Marshal(transaction)
	if err != nil {
		return "", "", fmt.Errorf("encode ilp transaction: %w", err)
	}

	amount, err := scaledAmount(transferAmount.Amount)
	if err != nil {
		return "", "", err
	}

	packet := encodePayment(amount, address(transaction.Payee.PartyIdInfo), []byte(encoding.EncodeToString(data)))
	encoded := encoding.EncodeToString(packet)

	fulfilment, err := i.CalculateFulfil(encoded)
	if err != nil {
		return "", "", err
	}
	condition, err := i.CalculateCondition(fulfilment)
	if err != nil {
		return "", "", err
	}
	return encoded, condition, nil
}

// CalculateFulfil is the HMAC-SHA256 of the encoded packet under the adaptor secret.
func (i *ILP) CalculateFulfil(packet string) (string, error) {
	if packet == "" {
		return "", fmt.Errorf("empty ilp packet")
	}
	mac := hmac.New(sha256.New, i.secret)
	mac.Write([]byte(packet))
	return encoding.EncodeToString(mac.Sum(nil)), nil
}

// CalculateCondition is the SHA-256 of the decoded fulfilment.
func (i *ILP) CalculateCondition(fulfilment string) (string, error) {
	preimage, err := encoding.DecodeString(strings.TrimRight(fulfilment, "="))
	if err != nil {
		return "", fmt.Errorf("decode fulfilment: %w", err)
	}
	if len(preimage) != fulfilmentSize {
		return "", fmt.Errorf("fulfilment must be %d bytes, got %d", fulfilmentSize, len(preimage))
	}
	sum := sha256.Sum256(preimage)
	return encoding.EncodeToString(sum[:]), nil
}

// DecodeTransaction returns the transaction object carried in an encoded packet.
func DecodeTransaction(packet string) (*mojaloop.IlpTransaction, error) {
	raw, err := encoding.DecodeString(strings.TrimRight(packet, "="))
	if err != nil {
		return nil, fmt.Errorf("decode ilp packet: %w", err)
	}

	r := bytes.NewReader(raw)
	packetType, err := r.ReadByte()
	if err != nil || packetType != typePayment {
		return nil, fmt.Errorf("not an ilp payment packet")
	}
	content, err := readVarOctets(r)
	if err != nil {
		return nil, err
	}

	r = bytes.NewReader(content)
	var amount uint64
	if err = binary.Read(r, binary.BigEndian, &amount); err != nil {
		return nil, fmt.Errorf("read ilp amount: %w", err)
	}
	if _, err = readVarOctets(r); err != nil {
		return nil, err
	}
	data, err := readVarOctets(r)
	if err != nil {
		return nil, err
	}

	decoded, err := encoding.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("decode ilp data: %w", err)
	}
	var transaction mojaloop.IlpTransaction
	if err = json.Unmarshal(decoded, &transaction); err != nil {
		return nil, fmt.Errorf("decode ilp transaction: %w", err)
	}
	return &transaction, nil
}

func address(p models.PartyIdInfo) string {
	parts := []string{addressPrefix}
	if p.FspID != "" {
		parts = append(parts, p.FspID)
	}
	parts = append(parts, strings.ToLower(p.PartyIdType), p.PartyIdentifier)
	return strings.Join(parts, ".")
}

func scaledAmount(amount decimal.Decimal) (uint64, error) {
	scaled := amount.Shift(amountScale)
	if scaled.IsNegative() || !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s cannot be expressed in ilp units", amount)
	}
	return scaled.BigInt().Uint64(), nil
}

func encodePayment(amount uint64, account string, data []byte) []byte {
	var content bytes.Buffer
	_ = binary.Write(&content, binary.BigEndian, amount)
	writeVarOctets(&content, []byte(account))
	writeVarOctets(&content, data)
	content.WriteByte(0) // no extensions

	var packet bytes.Buffer
	packet.WriteByte(typePayment)
	writeVarOctets(&packet, content.Bytes())
	return packet.Bytes()
}

// writeVarOctets writes an OER variable length octet string.
func writeVarOctets(w *bytes.Buffer, b []byte) {
	n := len(b)
	if n < 0x80 {
		w.WriteByte(byte(n))
	} else {
		var length [8]byte
		binary.BigEndian.PutUint64(length[:], uint64(n))
		trimmed := bytes.TrimLeft(length[:], "\x00")
		w.WriteByte(0x80 | byte(len(trimmed)))
		w.Write(trimmed)
	}
	w.Write(b)
}

func readVarOctets(r *bytes.Reader) ([]byte, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read ilp length: %w", err)
	}

	n := int(first)
	if first&0x80 != 0 {
		size := int(first & 0x7f)
		if size == 0 || size > 8 {
			return nil, fmt.Errorf("invalid ilp length prefix")
		}
		n = 0
		for i := 0; i < size; i++ {
			b, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("read ilp length: %w", err)
			}
			n = n<<8 | int(b)
		}
	}
	if n > r.Len() {
		return nil, fmt.Errorf("ilp length %d exceeds packet", n)
	}

	b := make([]byte, n)
	if _, err = r.Read(b); err != nil && n > 0 {
		return nil, fmt.Errorf("read ilp octets: %w", err)
	}
	return b, nil
}
