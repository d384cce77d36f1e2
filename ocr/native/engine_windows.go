//go:build windows

package native

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/wudi/pdfocr/ocr"
)

// ocrScript drives Windows.Media.Ocr through the WinRT projection available
// to PowerShell 5+.
const ocrScript = `
param([string]$Path)
$ErrorActionPreference = 'Stop'
[void][Windows.Media.Ocr.OcrEngine, Windows.Foundation, ContentType=WindowsRuntime]
[void][Windows.Storage.StorageFile, Windows.Storage, ContentType=WindowsRuntime]
[void][Windows.Graphics.Imaging.BitmapDecoder, Windows.Graphics, ContentType=WindowsRuntime]
Add-Type -AssemblyName System.Runtime.WindowsRuntime
$awaitMethod = [System.WindowsRuntimeSystemExtensions].GetMethods() |
    Where-Object { $_.Name -eq 'AsTask' -and $_.GetParameters().Count -eq 1 -and $_.GetParameters()[0].ParameterType.Name -eq 'IAsyncOperation` + "`" + `1' } |
    Select-Object -First 1
function Await($op, $type) {
    $task = $awaitMethod.MakeGenericMethod($type).Invoke($null, @($op))
    $task.Wait()
    $task.Result
}
$file = Await ([Windows.Storage.StorageFile]::GetFileFromPathAsync($Path)) ([Windows.Storage.StorageFile])
$stream = Await ($file.OpenReadAsync()) ([Windows.Storage.Streams.IRandomAccessStreamWithContentType])
$decoder = Await ([Windows.Graphics.Imaging.BitmapDecoder]::CreateAsync($stream)) ([Windows.Graphics.Imaging.BitmapDecoder])
$bitmap = Await ($decoder.GetSoftwareBitmapAsync()) ([Windows.Graphics.Imaging.SoftwareBitmap])
$engine = [Windows.Media.Ocr.OcrEngine]::TryCreateFromUserProfileLanguages()
if ($null -eq $engine) { throw 'no OCR language pack installed' }
$result = Await ($engine.RecognizeAsync($bitmap)) ([Windows.Media.Ocr.OcrResult])
$result.Lines | ForEach-Object { $_.Text }
`

func platformAvailable() error {
	if _, err := exec.LookPath("powershell"); err != nil {
		return fmt.Errorf("%w: powershell not found", ocr.ErrEngineUnavailable)
	}
	return nil
}

func platformRecognize(ctx context.Context, imgPath string, langs []string) (string, error) {
	// PowerShell binds the param() block only when the script runs from a
	// file; -Command would fold "-Path <file>" into the script text.
	script, err := os.CreateTemp("", "winocr-*.ps1")
	if err != nil {
		return "", fmt.Errorf("windows ocr: %w", err)
	}
	defer os.Remove(script.Name())
	if _, err := script.WriteString(ocrScript); err != nil {
		script.Close()
		return "", fmt.Errorf("windows ocr: %w", err)
	}
	if err := script.Close(); err != nil {
		return "", fmt.Errorf("windows ocr: %w", err)
	}

	cmd := exec.CommandContext(ctx, "powershell", ocrArgs(script.Name(), imgPath)...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("windows ocr: %s", ee.Stderr)
		}
		return "", fmt.Errorf("windows ocr: %w", err)
	}
	return string(out), nil
}

func ocrArgs(scriptPath, imgPath string) []string {
	return []string{
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass",
		"-File", scriptPath, "-Path", imgPath,
	}
}
