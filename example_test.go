package metricdp_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/metricdp"
	"github.com/hupe1980/metricdp/blobstore"
	"github.com/hupe1980/metricdp/distance"
)

func Example() {
	ctx := context.Background()

	store, err := metricdp.NewStore(
		[]int{0, 1, 2, 10, 11, 12},
		[][]float32{{0, 0}, {0, 5}, {0, -5}, {1, 0}, {1.1, 0}, {-5, 0}},
	)
	if err != nil {
		panic(err)
	}

	p, err := metricdp.New(store, metricdp.WithMinCandidateID(10))
	if err != nil {
		panic(err)
	}
	if err := p.BuildANN(ctx, distance.MetricL2, 10); err != nil {
		panic(err)
	}

	special := metricdp.NewSpecialTokens(0, 1, 2)
	out, err := p.Privatize(ctx, []int{1, 10, 2, 0}, 10000, special)
	if err != nil {
		panic(err)
	}
	fmt.Println(out)

	// Output: [1 10 2 0]
}

func ExamplePrivatizer_SaveIndex() {
	ctx := context.Background()

	store, err := metricdp.NewStore([]int{0, 1, 2}, [][]float32{{0}, {1}, {2}})
	if err != nil {
		panic(err)
	}
	p, err := metricdp.New(store)
	if err != nil {
		panic(err)
	}
	if err := p.BuildANN(ctx, distance.MetricL1, 4); err != nil {
		panic(err)
	}

	bs := blobstore.NewMemoryStore()
	if err := p.SaveIndex(ctx, bs, "l1.mdp"); err != nil {
		panic(err)
	}

	info, err := metricdp.ReadSnapshotInfo(ctx, bs, "l1.mdp")
	if err != nil {
		panic(err)
	}
	fmt.Println(info.Metric, info.NumTrees, info.Rows, info.Codec)

	// Output: L1 4 3 msgpack
}
