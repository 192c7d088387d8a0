package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/handiism/buildlog-dashboard/internal/model"
)

// ProgressWriter wraps a writer to track hashing progress.
//
// Write fails with the context error once ctx is cancelled, which stops an
// io.Copy over a large artifact at the next chunk.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Ctx:    ctx,
//	    Writer: sha256.New(),
//	    Total:  info.Size(),
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, file)
type ProgressWriter struct {
	Ctx context.Context

	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (the file size).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	if pw.Ctx != nil {
		if err := pw.Ctx.Err(); err != nil {
			return 0, err
		}
	}
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// ComputeHash returns the lower-case hex SHA-256 of the file at path.
//
// A file that does not exist hashes to the "-" placeholder without error.
// The whole file is streamed, so callers must run this off the interactive
// goroutine for large artifacts. onProgress may be nil.
func ComputeHash(ctx context.Context, path string, onProgress func(written, total int64)) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.PlaceholderHash, nil
		}
		return "", err
	}
	defer file.Close()

	var total int64
	if info, err := file.Stat(); err == nil {
		total = info.Size()
	}

	h := sha256.New()
	pw := &ProgressWriter{Ctx: ctx, Writer: h, Total: total, OnUpdate: onProgress}
	if _, err := io.Copy(pw, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
