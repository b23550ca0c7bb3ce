package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Ticket passes are the scannable payload behind the QR code:
//
//	collection:<uuid>;serial:<n>;owner:<uuid>;signature:<hex hmac>
//
// The signature binds collection, serial and current owner, so a pass stops
// verifying the moment the ticket changes hands.

func GenerateTicketPassData(collectionID uuid.UUID, serial int, ownerID uuid.UUID, secretKey string) string {
	signature := GeneratePassSignature(collectionID, serial, ownerID, secretKey)
	return fmt.Sprintf("collection:%s;serial:%d;owner:%s;signature:%s",
		collectionID.String(), serial, ownerID.String(), signature)
}

func GeneratePassSignature(collectionID uuid.UUID, serial int, ownerID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%d:%s", collectionID.String(), serial, ownerID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ParseTicketPassData extracts the pass fields without verifying them.
func ParseTicketPassData(passData string) (collectionID uuid.UUID, serial int, ownerID uuid.UUID, err error) {
	parts := strings.Split(passData, ";")
	if len(parts) != 4 ||
		!strings.HasPrefix(parts[0], "collection:") ||
		!strings.HasPrefix(parts[1], "serial:") ||
		!strings.HasPrefix(parts[2], "owner:") ||
		!strings.HasPrefix(parts[3], "signature:") {
		return uuid.Nil, 0, uuid.Nil, fmt.Errorf("invalid pass data format")
	}

	collectionID, err = uuid.Parse(strings.TrimPrefix(parts[0], "collection:"))
	if err != nil {
		return uuid.Nil, 0, uuid.Nil, fmt.Errorf("invalid collection id in pass")
	}
	serial, err = strconv.Atoi(strings.TrimPrefix(parts[1], "serial:"))
	if err != nil || serial < 1 {
		return uuid.Nil, 0, uuid.Nil, fmt.Errorf("invalid serial in pass")
	}
	ownerID, err = uuid.Parse(strings.TrimPrefix(parts[2], "owner:"))
	if err != nil {
		return uuid.Nil, 0, uuid.Nil, fmt.Errorf("invalid owner id in pass")
	}
	return collectionID, serial, ownerID, nil
}

func ValidateTicketPassSignature(passData string, secretKey string) bool {
	collectionID, serial, ownerID, err := ParseTicketPassData(passData)
	if err != nil {
		return false
	}
	parts := strings.Split(passData, ";")
	signature := strings.TrimPrefix(parts[3], "signature:")
	expected := GeneratePassSignature(collectionID, serial, ownerID, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}
