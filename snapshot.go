package metricdp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/metricdp/blobstore"
	"github.com/hupe1980/metricdp/codec"
	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/index/forest"
	"github.com/hupe1980/metricdp/persistence"
	"github.com/hupe1980/metricdp/resource"
)

const (
	maxCodecNameLen = 64
	maxMetadataLen  = 1 << 20
)

// SnapshotInfo is the metadata section of an index snapshot.
//
// Codec, Compression and Size describe the snapshot file itself and are
// filled in when reading.
type SnapshotInfo struct {
	Metric             string `json:"metric" msgpack:"metric" cbor:"metric"`
	NumTrees           int    `json:"num_trees" msgpack:"num_trees" cbor:"num_trees"`
	LeafSize           int    `json:"leaf_size" msgpack:"leaf_size" cbor:"leaf_size"`
	SearchK            int    `json:"search_k" msgpack:"search_k" cbor:"search_k"`
	TwoMeansIterations int    `json:"two_means_iterations" msgpack:"two_means_iterations" cbor:"two_means_iterations"`
	Dimension          int    `json:"dimension" msgpack:"dimension" cbor:"dimension"`
	Rows               int    `json:"rows" msgpack:"rows" cbor:"rows"`
	MinCandidateID     int    `json:"min_candidate_id" msgpack:"min_candidate_id" cbor:"min_candidate_id"`
	Fingerprint        uint64 `json:"fingerprint" msgpack:"fingerprint" cbor:"fingerprint"`

	Codec       string `json:"-" msgpack:"-" cbor:"-"`
	Compression string `json:"-" msgpack:"-" cbor:"-"`
	Size        int64  `json:"-" msgpack:"-" cbor:"-"`
}

// SaveIndex writes the current index to store under name.
//
// The snapshot holds the forest structure only. Loading it requires the same
// embedding store, which is checked by fingerprint.
func (p *Privatizer) SaveIndex(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	size, err := p.saveIndex(ctx, store, name)
	dur := time.Since(start)

	p.opts.logger.LogSnapshot(ctx, SnapshotSave, name, size, err)
	p.opts.metricsCollector.RecordSnapshot(SnapshotSave, size, dur, err)

	return err
}

func (p *Privatizer) saveIndex(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	cur := p.current.Load()
	if cur == nil {
		return 0, ErrIndexNotBuilt
	}

	info := SnapshotInfo{
		Metric:             cur.key.Metric.String(),
		NumTrees:           cur.forest.NumTrees(),
		LeafSize:           cur.key.LeafSize,
		SearchK:            cur.forest.SearchK(),
		TwoMeansIterations: cur.key.TwoMeansIterations,
		Dimension:          cur.forest.Dimension(),
		Rows:               cur.forest.Len(),
		MinCandidateID:     p.opts.minCandidateID,
		Fingerprint:        p.store.Fingerprint(),
	}

	data, err := encodeSnapshot(cur.forest, &info, p.opts.codec, p.opts.compression)
	if err != nil {
		return 0, translateError(err)
	}

	if err := p.opts.resources.AcquireIO(ctx, len(data)); err != nil {
		return 0, err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("metricdp: put snapshot %q: %w", name, err)
	}
	return int64(len(data)), nil
}

// LoadIndex reads a snapshot written by SaveIndex and makes it the current
// index. A snapshot of a different store, dimension or candidate floor is a
// configuration error.
func (p *Privatizer) LoadIndex(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()
	size, err := p.loadIndex(ctx, store, name)
	dur := time.Since(start)

	p.opts.logger.LogSnapshot(ctx, SnapshotLoad, name, size, err)
	p.opts.metricsCollector.RecordSnapshot(SnapshotLoad, size, dur, err)

	return err
}

func (p *Privatizer) loadIndex(ctx context.Context, store blobstore.BlobStore, name string) (int64, error) {
	data, err := readBlob(ctx, store, name, p.opts.resources)
	if err != nil {
		return 0, err
	}
	size := int64(len(data))

	info, body, err := decodeSnapshot(data)
	if err != nil {
		return size, translateError(err)
	}

	switch {
	case info.Fingerprint != p.store.Fingerprint():
		return size, configError("snapshot %q was built from a different embedding store", name)
	case info.Dimension != p.store.Dimension():
		return size, configError("snapshot %q has dimension %d, store has %d", name, info.Dimension, p.store.Dimension())
	case info.MinCandidateID != p.opts.minCandidateID:
		return size, configError("snapshot %q uses candidate floor %d, privatizer uses %d", name, info.MinCandidateID, p.opts.minCandidateID)
	}

	f, err := forest.ReadFrom(bytes.NewReader(body), p.store)
	if err != nil {
		return size, translateError(err)
	}
	if f.Len() != p.Candidates() {
		return size, configError("snapshot %q indexes %d tokens, privatizer has %d candidates", name, f.Len(), p.Candidates())
	}

	opts := f.Options()
	key := indexKey{
		Metric:             opts.Metric,
		NumTrees:           opts.NumTrees,
		LeafSize:           opts.LeafSize,
		SearchK:            opts.SearchK,
		TwoMeansIterations: opts.TwoMeansIterations,
	}

	sampler, err := p.samplerFor(opts.Metric)
	if err != nil {
		return size, translateError(err)
	}

	p.buildMu.Lock()
	p.cache.Add(key, f)
	p.current.Store(&index{key: key, forest: f, sampler: sampler})
	p.buildMu.Unlock()

	return size, nil
}

// ReadSnapshotInfo returns the metadata of a snapshot without loading it.
func ReadSnapshotInfo(ctx context.Context, store blobstore.BlobStore, name string) (*SnapshotInfo, error) {
	data, err := readBlob(ctx, store, name, nil)
	if err != nil {
		return nil, err
	}
	info, _, err := decodeSnapshot(data)
	if err != nil {
		return nil, translateError(err)
	}
	return info, nil
}

func readBlob(ctx context.Context, store blobstore.BlobStore, name string, rc *resource.Controller) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("metricdp: open snapshot %q: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	r, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("metricdp: read snapshot %q: %w", name, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(rc.Reader(ctx, r))
	if err != nil {
		return nil, fmt.Errorf("metricdp: read snapshot %q: %w", name, err)
	}
	if int64(len(data)) != blob.Size() {
		return nil, fmt.Errorf("metricdp: read snapshot %q: got %d of %d bytes: %w", name, len(data), blob.Size(), io.ErrUnexpectedEOF)
	}
	return data, nil
}

// encodeSnapshot lays out header, codec name, metadata and the (optionally
// compressed) forest body, followed by a CRC32C of everything before it.
func encodeSnapshot(f *forest.Forest, info *SnapshotInfo, c codec.Codec, comp persistence.Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	var body bytes.Buffer
	if _, err := f.WriteTo(&body); err != nil {
		return nil, err
	}
	block, err := persistence.CompressBlock(body.Bytes(), comp)
	if err != nil {
		return nil, err
	}

	meta, err := c.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("metricdp: encode snapshot metadata with %s: %w", c.Name(), err)
	}

	var buf bytes.Buffer
	sum := persistence.NewChecksumWriter(&buf)
	w := persistence.NewWriter(sum)

	header := &persistence.FileHeader{
		Kind:        persistence.KindSnapshot,
		Compression: uint8(comp),
		Metric:      uint8(f.Metric()),     //nolint:gosec
		Dimension:   uint32(f.Dimension()), //nolint:gosec
		Count:       uint64(f.Len()),
	}
	if err := w.WriteHeader(header); err != nil {
		return nil, err
	}
	if err := w.WriteBytes([]byte(c.Name())); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(meta); err != nil {
		return nil, err
	}
	if err := w.WriteBytes(block); err != nil {
		return nil, err
	}

	if err := sum.WriteTrailer(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(data []byte) (*SnapshotInfo, []byte, error) {
	payload, err := persistence.Unseal(data)
	if err != nil {
		return nil, nil, err
	}

	br := bytes.NewReader(payload)
	r := persistence.NewReader(br)

	header, err := r.ReadHeader(persistence.KindSnapshot)
	if err != nil {
		return nil, nil, err
	}

	codecName, err := r.ReadBytes(maxCodecNameLen)
	if err != nil {
		return nil, nil, configError("snapshot codec name: %v", err)
	}
	c, ok := codec.ByName(string(codecName))
	if !ok {
		return nil, nil, configError("snapshot uses unknown codec %q", codecName)
	}

	meta, err := r.ReadBytes(maxMetadataLen)
	if err != nil {
		return nil, nil, configError("snapshot metadata: %v", err)
	}
	var info SnapshotInfo
	if err := c.Unmarshal(meta, &info); err != nil {
		return nil, nil, configError("decode snapshot metadata with %s: %v", c.Name(), err)
	}

	block, err := r.ReadBytes(len(payload))
	if err != nil {
		return nil, nil, configError("snapshot body: %v", err)
	}
	if br.Len() != 0 {
		return nil, nil, configError("snapshot has %d trailing bytes", br.Len())
	}

	metric := distance.Metric(header.Metric)
	if m, err := distance.ParseMetric(info.Metric); err != nil || m != metric {
		return nil, nil, configError("snapshot metric %q does not match header metric %v", info.Metric, metric)
	}
	if uint32(info.Dimension) != header.Dimension || uint64(info.Rows) != header.Count { //nolint:gosec
		return nil, nil, configError("snapshot metadata does not match header")
	}

	comp := persistence.Compression(header.Compression)
	body, err := persistence.DecompressBlock(block, comp)
	if err != nil {
		return nil, nil, err
	}

	info.Codec = c.Name()
	info.Compression = comp.String()
	info.Size = int64(len(data))

	return &info, body, nil
}
