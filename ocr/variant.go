package ocr

import "fmt"

// Variant selects one of the interchangeable OCR backends. The set is closed:
// a traditional engine, a deep-learning engine, and the OS-provided engine.
type Variant string

const (
	// VariantTesseract is the traditional engine (Tesseract via gosseract).
	VariantTesseract Variant = "tesseract"
	// VariantNeural is the deep-learning engine (PaddleOCR ONNX models).
	VariantNeural Variant = "neural"
	// VariantNative is the engine provided by the host operating system.
	VariantNative Variant = "native"
)

// DefaultVariant is used when no engine has been selected explicitly.
const DefaultVariant = VariantTesseract

// Variants returns all engine variants in canonical order.
func Variants() []Variant {
	return []Variant{VariantTesseract, VariantNeural, VariantNative}
}

// ParseVariant maps a configuration string onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantTesseract, VariantNeural, VariantNative:
		return Variant(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

func (v Variant) String() string { return string(v) }

// Description returns a short human-readable summary shown next to the engine
// selector.
func (v Variant) Description() string {
	switch v {
	case VariantTesseract:
		return "Fast, accurate, 100+ languages"
	case VariantNeural:
		return "Deep learning, good for complex layouts"
	case VariantNative:
		return "Built into the host OS, fast"
	}
	return ""
}
