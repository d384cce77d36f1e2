//go:build !darwin && !windows

package native

import (
	"context"
	"fmt"
	"runtime"

	"github.com/wudi/pdfocr/ocr"
)

func platformAvailable() error {
	return fmt.Errorf("%w: no system ocr on %s", ocr.ErrPlatformUnsupported, runtime.GOOS)
}

func platformRecognize(ctx context.Context, imgPath string, langs []string) (string, error) {
	return "", platformAvailable()
}
