//go:build darwin

package native

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/wudi/pdfocr/ocr"
)

// visionScript runs a VNRecognizeTextRequest over the image via the
// Objective-C bridge exposed to osascript's JavaScript runtime.
const visionScript = `
ObjC.import('Vision');
ObjC.import('AppKit');

function run(argv) {
    const path = argv[0];
    const img = $.NSImage.alloc.initWithContentsOfFile(path);
    if (img.isNil()) { throw new Error('cannot read image'); }
    const cgRef = img.CGImageForProposedRectContextHints(null, null, null);
    const handler = $.VNImageRequestHandler.alloc.initWithCGImageOptions(cgRef, $.NSDictionary.dictionary);
    const request = $.VNRecognizeTextRequest.alloc.init;
    request.recognitionLevel = $.VNRequestTextRecognitionLevelAccurate;
    const err = Ref();
    handler.performRequestsError($.NSArray.arrayWithObject(request), err);
    const lines = [];
    const results = request.results;
    for (let i = 0; i < results.count; i++) {
        const candidate = results.objectAtIndex(i).topCandidatesCount(1).objectAtIndex(0);
        lines.push(candidate.string.js);
    }
    return lines.join('\n');
}
`

func platformAvailable() error {
	if _, err := exec.LookPath("osascript"); err != nil {
		return fmt.Errorf("%w: osascript not found", ocr.ErrEngineUnavailable)
	}
	return nil
}

func platformRecognize(ctx context.Context, imgPath string, langs []string) (string, error) {
	cmd := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", visionScript, imgPath)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("vision ocr: %s", ee.Stderr)
		}
		return "", fmt.Errorf("vision ocr: %w", err)
	}
	return string(out), nil
}
