package model

import "strings"

type Role string

const (
	RoleReception       Role = "Reception"
	RoleDoctor          Role = "Doctor"
	RoleAccountant      Role = "Accountant"
	RoleContractManager Role = "ContractManager"
	RoleAdmin           Role = "Admin"
)

var roles = []Role{RoleReception, RoleDoctor, RoleAccountant, RoleContractManager, RoleAdmin}

// ParseRole matches case-insensitively and returns the canonical spelling.
func ParseRole(s string) (Role, bool) {
	for _, r := range roles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, true
		}
	}
	return "", false
}

type PaymentType string

const (
	PaymentCash      PaymentType = "Cash"
	PaymentInsurance PaymentType = "Insurance"
)

func ParsePaymentType(s string) (PaymentType, bool) {
	for _, t := range []PaymentType{PaymentCash, PaymentInsurance} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

type VisitStatus string

const (
	StatusWaiting    VisitStatus = "Waiting"
	StatusInProgress VisitStatus = "InProgress"
	StatusDone       VisitStatus = "Done"
)

func ParseVisitStatus(s string) (VisitStatus, bool) {
	for _, st := range []VisitStatus{StatusWaiting, StatusInProgress, StatusDone} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}
