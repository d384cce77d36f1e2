// Package ocr defines the abstraction layer for the interchangeable OCR
// backends. The interfaces are intentionally small and transport-agnostic so
// engines can be backed by native libraries, local neural models, or OS
// services without leaking provider-specific concerns into callers.
package ocr
