package kernel

import "github.com/google/uuid"

type RequesterID string

func NewRequesterID() RequesterID     { return RequesterID(uuid.NewString()) }
func (id RequesterID) String() string { return string(id) }
func (id RequesterID) IsEmpty() bool  { return string(id) == "" }

type CreditRequestID string

func NewCreditRequestID() CreditRequestID { return CreditRequestID(uuid.NewString()) }
func (id CreditRequestID) String() string { return string(id) }
func (id CreditRequestID) IsEmpty() bool  { return string(id) == "" }

// ValidID reports whether s is a canonical uuid. Path parameters are
// checked with it before reaching postgres.
func ValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
