// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package signing

import (
	"bytes"
	"context"
	"time"

	"github.com/minchaudhary/digital-signature/pkg/cms"
	"github.com/minchaudhary/digital-signature/pkg/config"
	"github.com/minchaudhary/digital-signature/pkg/hashing/digests"
	hashio "github.com/minchaudhary/digital-signature/pkg/hashing/engines/io"
	"github.com/minchaudhary/digital-signature/pkg/interfaces"
	"github.com/minchaudhary/digital-signature/pkg/keys"
	"github.com/minchaudhary/digital-signature/pkg/logging"
	"github.com/minchaudhary/digital-signature/pkg/pdf"
	"github.com/minchaudhary/digital-signature/pkg/signerr"
	"github.com/minchaudhary/digital-signature/pkg/tracing"
)

// reservationSlack covers the CMS structure around the certificate and
// signature: algorithm identifiers, signed attributes and length headers.
const reservationSlack = 2048

// Signed is an in-memory signed document.
type Signed struct {
	Data          []byte
	FieldName     string
	ByteRanges    []hashio.ByteRange
	Digest        digests.Digest
	SigningTime   time.Time
	ContainerSize int
	Capacity      int
}

// ReservationSize returns the container capacity reserved for km: twice
// the certificate DER plus the signature, the chain and fixed slack.
func ReservationSize(km *keys.KeyMaterial) int {
	return 2*len(km.Certificate.Raw) + km.SignatureSize() + km.ChainSize() + reservationSlack
}

// SignDocument signs doc in memory with km. It neither reads nor writes
// files and does not close km. A nil cfg uses the defaults.
func SignDocument(ctx context.Context, doc []byte, km *keys.KeyMaterial, cfg *config.SignatureConfig) (*Signed, error) {
	p := &pipeline{reserver: pdf.Incremental{}, cfg: cfg, logger: logging.Discard()}
	return p.run(ctx, doc, km)
}

// pipeline carries one document through the signing states.
type pipeline struct {
	reserver interfaces.PlaceholderReserver
	cfg      *config.SignatureConfig
	logger   logging.Logger
	state    State
}

func (p *pipeline) advance(s State) {
	p.logger.Debug("Signing state: %s -> %s", p.state, s)
	p.state = s
}

func (p *pipeline) run(ctx context.Context, doc []byte, km *keys.KeyMaterial) (*Signed, error) {
	cfg := p.cfg
	if cfg == nil {
		cfg = config.NewSignatureConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if km == nil || km.Signer == nil || km.Certificate == nil {
		return nil, signerr.New(signerr.KindSigning, "no key material")
	}
	if err := km.RequireRSA(); err != nil {
		return nil, err
	}
	if pdf.HasSignatures(doc) {
		return nil, signerr.New(signerr.KindAlreadySigned,
			"document already carries a signature; only single-signer documents are supported")
	}

	capacity := cfg.PlaceholderSize()
	if capacity == 0 {
		capacity = ReservationSize(km)
	}
	signingTime := cfg.Now()
	alg := cfg.DigestAlgorithm()

	var prepared *pdf.Prepared
	p.logger.Info("Step 1: Reserving a %d byte signature placeholder...", capacity)
	err := tracing.Run(ctx, "pdf.reserve", map[string]interface{}{"pdf.size": len(doc), "placeholder.capacity": capacity},
		func(context.Context) error {
			var err error
			prepared, err = p.reserver.Reserve(doc, capacity, cfg.SignatureInfo(signingTime))
			return err
		})
	if err != nil {
		return nil, err
	}
	p.advance(StatePlaceholderReserved)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var digest digests.Digest
	p.logger.Info("Step 2: Computing %s digest over %d bytes...", alg, hashio.TotalLength(prepared.ByteRanges))
	err = tracing.Run(ctx, "pdf.digest", map[string]interface{}{"digest.algorithm": alg.String()},
		func(context.Context) error {
			var err error
			digest, err = hashio.DigestRanges(bytes.NewReader(prepared.Data), int64(len(prepared.Data)), prepared.ByteRanges, alg)
			return err
		})
	if err != nil {
		return nil, err
	}
	p.advance(StateDigestComputed)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var container []byte
	p.logger.Info("Step 3: Building signature container for %s...", km.Certificate.Subject)
	err = tracing.Run(ctx, "cms.build", nil, func(context.Context) error {
		var err error
		container, err = cms.Build(digest, km.Signer, km.Certificate, cms.BuildOptions{
			SigningTime: signingTime,
			Chain:       km.Chain,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	p.advance(StateContainerBuilt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("Step 4: Embedding %d byte container...", len(container))
	if err := p.reserver.Fill(prepared.Data, prepared.Placeholder, container); err != nil {
		return nil, err
	}
	p.advance(StateFilled)

	return &Signed{
		Data:          prepared.Data,
		FieldName:     prepared.FieldName,
		ByteRanges:    prepared.ByteRanges,
		Digest:        digest,
		SigningTime:   signingTime,
		ContainerSize: len(container),
		Capacity:      prepared.Placeholder.Capacity,
	}, nil
}
