package domain

import (
	"fmt"
	"strings"
)

// StoreType is the hosted-page integration model configured on the merchant store
type StoreType string

const (
	StoreType3D            StoreType = "3d"
	StoreType3DPay         StoreType = "3d_pay"
	StoreType3DHalf        StoreType = "3d_half"
	StoreType3DFull        StoreType = "3d_full"
	StoreType3DHosting     StoreType = "3d_hosting"
	StoreType3DPayHosting  StoreType = "3d_pay_hosting"
	StoreTypePayHosting    StoreType = "pay_hosting"
	StoreTypePay           StoreType = "pay"
	StoreTypeOptPayHosting StoreType = "opt_pay_hosting"
)

var storeTypes = []StoreType{
	StoreType3D, StoreType3DPay, StoreType3DHalf, StoreType3DFull, StoreType3DHosting,
	StoreType3DPayHosting, StoreTypePayHosting, StoreTypePay, StoreTypeOptPayHosting,
}

// TranType is the transaction type requested from the processor
type TranType string

const (
	TranTypePreAuth  TranType = "preauth"
	TranTypeAuth     TranType = "auth"
	TranTypePostAuth TranType = "postauth"
	TranTypeVoid     TranType = "void"
	TranTypeCredit   TranType = "credit"
)

var tranTypes = []TranType{TranTypePreAuth, TranTypeAuth, TranTypePostAuth, TranTypeVoid, TranTypeCredit}

// ConfirmationMode selects the acknowledgement sent for an approved callback
type ConfirmationMode string

const (
	// ConfirmationModeAuto asks the processor to capture immediately
	ConfirmationModeAuto ConfirmationMode = "auto"
	// ConfirmationModeManual approves without capturing
	ConfirmationModeManual ConfirmationMode = "manual"
)

// NormalizeStoreType lowercases and checks the store type
func NormalizeStoreType(s string) (StoreType, error) {
	st := StoreType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range storeTypes {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unsupported store type %q (supported: %s)", s, joinStrings(storeTypes))
}

// NormalizeTranType lowercases and checks the transaction type
func NormalizeTranType(s string) (TranType, error) {
	tt := TranType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range tranTypes {
		if tt == known {
			return tt, nil
		}
	}
	return "", fmt.Errorf("unsupported transaction type %q (supported: %s)", s, joinStrings(tranTypes))
}

// NormalizeConfirmationMode lowercases the mode; an empty value means auto
func NormalizeConfirmationMode(s string) (ConfirmationMode, error) {
	switch m := ConfirmationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ConfirmationModeAuto, nil
	case ConfirmationModeAuto, ConfirmationModeManual:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported confirmation mode %q (supported: auto, manual)", s)
	}
}

func joinStrings[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
