package payment

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// StatusPending is the status assumed when the provider was never consulted.
const StatusPending = "PENDING"

// approvedPattern decides final approval: any status string containing one
// of these words, in any case, is treated as a settled payment.
var approvedPattern = regexp.MustCompile(`(?i)PAID|APPROVED|SUCCESS`)

// overridablePattern marks checkout statuses that the transaction status is
// still allowed to override.
var overridablePattern = regexp.MustCompile(`(?i)PENDING|PAID|APPROVED`)

// Approved reports whether a resolved provider status counts as a settled payment.
func Approved(status string) bool {
	return approvedPattern.MatchString(status)
}

// ResolveReturnStatus resolves the status of a finished hosted checkout on
// the shopper's return redirect. The checkout status is consulted first;
// while it is still pending/paid/approved the transaction endpoint gets the
// final word. With neither identifier the status stays PENDING and no
// provider call is made.
func (s *SumUp) ResolveReturnStatus(ctx context.Context, checkoutID, transactionID string) (string, error) {
	checkoutID = strings.TrimSpace(checkoutID)
	transactionID = strings.TrimSpace(transactionID)
	status := StatusPending
	if checkoutID == "" && transactionID == "" {
		return status, nil
	}
	if !s.Configured() {
		return "", errors.New("sumup client not configured")
	}
	if checkoutID != "" {
		checkoutStatus, err := s.CheckoutStatus(ctx, checkoutID)
		if err != nil {
			return "", err
		}
		if checkoutStatus != "" {
			status = checkoutStatus
		}
	}
	if transactionID != "" && overridablePattern.MatchString(status) {
		transactionStatus, err := s.TransactionStatus(ctx, transactionID)
		if err != nil {
			return "", err
		}
		if transactionStatus != "" {
			status = transactionStatus
		}
	}
	return status, nil
}
