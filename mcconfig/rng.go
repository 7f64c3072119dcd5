// Copyright ©2026 The mcintegrate Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Original C program copyright Takuji Nishimura and Makoto Matsumoto 2004.
// http://www.math.sci.hiroshima-u.ac.jp/~m-mat/MT/VERSIONS/C-LANG/mt19937-64.c

package mcconfig

const (
	blockSourceN        = 312
	blockSourceM        = 156
	blockSourceMatrixA  = 0xB5026F5AA96619E9
	blockSourceUpperBit = 0xFFFFFFFF80000000
	blockSourceLowerBit = 0x7FFFFFFF
)

// blockSource is a 64 bit Mersenne Twister, used as the per-Configuration
// RNG. It is seeded deterministically from a base seed and a block
// index (NewBlockSource) so that a single-block run with a fixed seed
// reproduces the same sample sequence bit-for-bit.
//
// It implements rand.Source64 so it can back a *rand.Rand directly.
type blockSource struct {
	mt  [blockSourceN]uint64
	mti int
}

// NewBlockSource returns a blockSource seeded deterministically from
// baseSeed and block, so every block in a run draws from an
// independent, reproducible stream.
func NewBlockSource(baseSeed uint64, block int) *blockSource {
	s := &blockSource{}
	s.Seed(int64(baseSeed + uint64(block)*0x9E3779B97F4A7C15)) // golden-ratio stride decorrelates adjacent blocks
	return s
}

// Seed implements rand.Source.
func (s *blockSource) Seed(seed int64) {
	s.mt[0] = uint64(seed)
	for s.mti = 1; s.mti < blockSourceN; s.mti++ {
		s.mt[s.mti] = 6364136223846793005*(s.mt[s.mti-1]^(s.mt[s.mti-1]>>62)) + uint64(s.mti)
	}
	s.mti = blockSourceN
}

// Int63 implements rand.Source.
func (s *blockSource) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Uint64 implements rand.Source64.
func (s *blockSource) Uint64() uint64 {
	mag01 := [2]uint64{0, blockSourceMatrixA}

	if s.mti >= blockSourceN {
		if s.mti == blockSourceN+1 {
			s.Seed(5489)
		}
		var i int
		for ; i < blockSourceN-blockSourceM; i++ {
			x := (s.mt[i] & blockSourceUpperBit) | (s.mt[i+1] & blockSourceLowerBit)
			s.mt[i] = s.mt[i+blockSourceM] ^ (x >> 1) ^ mag01[x&1]
		}
		for ; i < blockSourceN-1; i++ {
			x := (s.mt[i] & blockSourceUpperBit) | (s.mt[i+1] & blockSourceLowerBit)
			s.mt[i] = s.mt[i+(blockSourceM-blockSourceN)] ^ (x >> 1) ^ mag01[x&1]
		}
		x := (s.mt[blockSourceN-1] & blockSourceUpperBit) | (s.mt[0] & blockSourceLowerBit)
		s.mt[blockSourceN-1] = s.mt[blockSourceM-1] ^ (x >> 1) ^ mag01[x&1]
		s.mti = 0
	}

	x := s.mt[s.mti]
	s.mti++

	x ^= (x >> 29) & 0x5555555555555555
	x ^= (x << 17) & 0x71D67FFFEDA60000
	x ^= (x << 37) & 0xFFF7EEE000000000
	x ^= x >> 43
	return x
}
