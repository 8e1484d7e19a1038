package embedding

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxVocabLine bounds a single vocabulary line.
const maxVocabLine = 1 << 20

// LoadFvecs loads an embedding matrix from a .fvecs file.
//
// FVECS format, for each row:
//   - 4 bytes: dimension (int32, little-endian)
//   - dimension * 4 bytes: float32 values (little-endian)
//
// All rows must have the same dimension.
func LoadFvecs(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fvecs file: %w", err)
	}
	defer f.Close()

	return ReadFvecs(bufio.NewReaderSize(f, 256*1024))
}

// ReadFvecs reads an embedding matrix in FVECS format.
func ReadFvecs(r io.Reader) ([][]float32, error) {
	var vectors [][]float32
	var expectedDim int32 = -1

	for {
		var dim int32
		err := binary.Read(r, binary.LittleEndian, &dim)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read dimension of row %d: %w", ErrMalformedFile, len(vectors), err)
		}

		if dim <= 0 {
			return nil, fmt.Errorf("%w: row %d has dimension %d", ErrMalformedFile, len(vectors), dim)
		}
		if expectedDim == -1 {
			expectedDim = dim
		} else if dim != expectedDim {
			return nil, fmt.Errorf("%w: inconsistent dimensions: expected %d, got %d", ErrMalformedFile, expectedDim, dim)
		}

		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("%w: failed to read values of row %d: %w", ErrMalformedFile, len(vectors), err)
		}

		vectors = append(vectors, vec)
	}

	return vectors, nil
}

// WriteFvecs writes vectors in FVECS format.
func WriteFvecs(w io.Writer, vectors [][]float32) error {
	for i, vec := range vectors {
		if err := binary.Write(w, binary.LittleEndian, int32(len(vec))); err != nil { //nolint:gosec // embedding dims are small
			return fmt.Errorf("failed to write dimension of row %d: %w", i, err)
		}
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("failed to write values of row %d: %w", i, err)
		}
	}
	return nil
}

// LoadVocab loads a vocabulary file with one token per line. The token on
// line i (0-based) gets id i, the layout of BERT style vocab.txt files.
func LoadVocab(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary file: %w", err)
	}
	defer f.Close()

	return ReadVocab(f)
}

// ReadVocab reads a vocabulary with one token per line.
func ReadVocab(r io.Reader) (map[string]int, error) {
	vocab := make(map[string]int)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxVocabLine)

	id := 0
	for sc.Scan() {
		tok := strings.TrimRight(sc.Text(), "\r")
		if prev, dup := vocab[tok]; dup {
			return nil, fmt.Errorf("%w: token %q on lines %d and %d", ErrMalformedFile, tok, prev+1, id+1)
		}
		vocab[tok] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}

	return vocab, nil
}
