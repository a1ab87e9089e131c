// Copyright 2025 Blink Labs Software
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pow

import (
	"sort"
)

type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
	Regtest NetworkType = "regtest"
)

type Network struct {
	Type   NetworkType
	Params ChainParams
	// LastPoWHeight is the height of the last block retargeted with the
	// windowed proof-of-work rule. Later blocks use the proof-of-stake
	// retarget.
	LastPoWHeight int64
}

var Networks = map[NetworkType]*Network{
	Mainnet: mainNet(),
	Testnet: testNet(),
	Regtest: regTest(),
}

// SelectNetwork returns the named network, or nil if it is unknown
func SelectNetwork(t NetworkType) *Network {
	return Networks[t]
}

// AvailableNetworks returns the sorted names of all known networks
func AvailableNetworks() []string {
	ret := make([]string, 0, len(Networks))
	for k := range Networks {
		ret = append(ret, string(k))
	}
	sort.Strings(ret)
	return ret
}

func mainNet() *Network {
	const (
		targetSpacing = int64(60)
		targetWindow  = int64(40)
	)
	return &Network{
		Type: Mainnet,
		Params: ChainParams{
			Interval:       targetWindow,
			TargetSpacing:  targetSpacing,
			TargetTimespan: targetWindow * targetSpacing,
			PowLimit:       limitShift(20),
		},
		LastPoWHeight: 259200,
	}
}

func testNet() *Network {
	const (
		targetSpacing = int64(60)
		targetWindow  = int64(40)
	)
	return &Network{
		Type: Testnet,
		Params: ChainParams{
			Interval:       targetWindow,
			TargetSpacing:  targetSpacing,
			TargetTimespan: targetWindow * targetSpacing,
			PowLimit:       limitShift(1),
		},
		LastPoWHeight: 200,
	}
}

func regTest() *Network {
	const (
		targetSpacing = int64(60)
		targetWindow  = int64(10)
	)
	return &Network{
		Type: Regtest,
		Params: ChainParams{
			Interval:             targetWindow,
			TargetSpacing:        targetSpacing,
			TargetTimespan:       targetWindow * targetSpacing,
			PowLimit:             limitShift(1),
			SkipProofOfWorkCheck: true,
		},
		LastPoWHeight: 250,
	}
}
