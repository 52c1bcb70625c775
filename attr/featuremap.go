// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package attr

import (
	"fmt"

	"github.com/born-ml/lens/tensor"
)

// featureIndex maps between the canonical flat feature-index space and the
// attributable inputs whose masks reference each index. Built once per
// attribution call, read-only afterwards.
type featureIndex struct {
	// nFeatures is one plus the maximum group id across all masks.
	nFeatures int

	// byFeature lists, per canonical feature index, the attributable-input
	// positions whose mask contains that index.
	byFeature map[int64][]int
}

// buildFeatureIndex scans the feature masks of the attributable inputs and
// builds the reverse map. Every canonical index in [0, nFeatures) must be
// referenced by at least one mask; holes and negative ids are configuration
// errors.
func buildFeatureIndex(masks []*tensor.RawTensor) (*featureIndex, error) {
	byFeature := make(map[int64][]int)
	maxID := int64(-1)

	for i, m := range masks {
		ids, err := distinctMaskIDs(m)
		if err != nil {
			return nil, fmt.Errorf("attr: feature mask %d: %w", i, err)
		}
		for _, id := range ids {
			if id < 0 {
				return nil, fmt.Errorf("attr: feature mask %d contains negative group id %d: %w", i, id, ErrInvalidConfig)
			}
			byFeature[id] = append(byFeature[id], i)
			if id > maxID {
				maxID = id
			}
		}
	}

	n := int(maxID) + 1
	for id := int64(0); id < int64(n); id++ {
		if len(byFeature[id]) == 0 {
			return nil, fmt.Errorf("attr: feature index %d is not referenced by any mask: %w", id, ErrInvalidConfig)
		}
	}
	return &featureIndex{nFeatures: n, byFeature: byFeature}, nil
}
