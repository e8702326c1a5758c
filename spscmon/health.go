package spscmon

import (
	"errors"

	"github.com/heptiolabs/healthcheck"
)

var (
	ErrReceiverGone = errors.New("spscmon: receiver closed")
	ErrSenderGone   = errors.New("spscmon: sender closed")
	ErrReaderGone   = errors.New("spscmon: reader closed")
	ErrWriterGone   = errors.New("spscmon: writer closed")
)

// ReceiverLiveness fails once the receiver paired with tx is closed, or tx
// itself is.
func ReceiverLiveness(tx interface{ IsReceiverActive() bool }) healthcheck.Check {
	return activeCheck(tx.IsReceiverActive, ErrReceiverGone)
}

// SenderLiveness fails once the sender paired with rx is closed, or rx itself
// is.
func SenderLiveness(rx interface{ IsSenderActive() bool }) healthcheck.Check {
	return activeCheck(rx.IsSenderActive, ErrSenderGone)
}

// ReaderLiveness fails once the reader paired with w is closed.
func ReaderLiveness(w interface{ IsReaderActive() bool }) healthcheck.Check {
	return activeCheck(w.IsReaderActive, ErrReaderGone)
}

// WriterLiveness fails once the writer paired with r is closed.
func WriterLiveness(r interface{ IsWriterActive() bool }) healthcheck.Check {
	return activeCheck(r.IsWriterActive, ErrWriterGone)
}

func activeCheck(active func() bool, err error) healthcheck.Check {
	return func() error {
		if !active() {
			return err
		}
		return nil
	}
}
