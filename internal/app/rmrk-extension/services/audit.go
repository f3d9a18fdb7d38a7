package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
)

const (
	IssueOverCapacity    = "over_capacity"
	IssueCountMismatch   = "count_mismatch"
	IssueOrphanNFT       = "orphan_nft"
	IssueDanglingOwner   = "dangling_owner"
	IssueOwnershipCycle  = "ownership_cycle"
	IssueTooDeep         = "too_deep"
	IssueNftIDAhead      = "nft_id_ahead"
	IssueResourceIDAhead = "resource_id_ahead"
)

type Issue struct {
	Kind    string
	Subject string
	Detail  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Subject, i.Detail)
}

type Report struct {
	Collections int
	NFTs        int
	Resources   int
	Issues      []Issue
}

func (r Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "audited %d collections, %d nfts, %d resources: %d issues", r.Collections, r.NFTs, r.Resources, len(r.Issues))
	for _, issue := range r.Issues {
		sb.WriteString("\n")
		sb.WriteString(issue.String())
	}
	return sb.String()
}

func (r *Report) add(kind, subject, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)})
}

type Helper interface {
	SendMail(message string) error
}

type AuditObserver interface {
	ObserveAudit(issues int, err error)
}

func NewAuditService(helper Helper, observer AuditObserver, maxNestingDepth int) *AuditService {
	return &AuditService{helper: helper, observer: observer, maxNestingDepth: engine.EffectiveMaxNestingDepth(maxNestingDepth)}
}

// AuditService checks the ownership graph invariants of a store and alerts when any of them is broken.
type AuditService struct {
	helper          Helper
	observer        AuditObserver
	maxNestingDepth int
}

// Execute runs one audit. Broken invariants are reported by mail and are not an error; failing to read the
// store or to send the alert is.
func (s *AuditService) Execute(ctx context.Context, storage engine.Storage) error {
	report, err := Audit(ctx, storage, s.maxNestingDepth)
	if s.observer != nil {
		s.observer.ObserveAudit(len(report.Issues), err)
	}
	if err != nil {
		return err
	}

	if len(report.Issues) == 0 {
		log.Debug().Msg(report.String())
		return nil
	}

	for _, issue := range report.Issues {
		log.Warn().Str("kind", issue.Kind).Str("subject", issue.Subject).Msg(issue.Detail)
	}
	return s.helper.SendMail(report.String())
}

type snapshot struct {
	collections []types.Collection
	nfts        map[types.NFTKey]types.NFT
	order       []types.NFTKey
	resources   map[types.NFTKey][]types.Resource
}

// Audit reads the whole store in one transaction and checks it.
func Audit(ctx context.Context, storage engine.Storage, maxNestingDepth int) (Report, error) {
	snap := snapshot{
		nfts:      make(map[types.NFTKey]types.NFT),
		resources: make(map[types.NFTKey][]types.Resource),
	}

	err := storage.ExecuteTx(ctx, func(tx engine.Tx) error {
		collections, err := tx.ListCollections(ctx)
		if err != nil {
			return err
		}
		snap.collections = collections

		nfts, err := tx.ListNFTs(ctx)
		if err != nil {
			return err
		}
		for _, nft := range nfts {
			snap.nfts[nft.NFTKey] = nft
			snap.order = append(snap.order, nft.NFTKey)

			resources, err := tx.ListResources(ctx, nft.NFTKey)
			if err != nil {
				return err
			}
			snap.resources[nft.NFTKey] = resources
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("audit read: %w", err)
	}

	return snap.check(engine.EffectiveMaxNestingDepth(maxNestingDepth)), nil
}

func (snap snapshot) check(maxNestingDepth int) Report {
	report := Report{Collections: len(snap.collections), NFTs: len(snap.nfts)}

	counts := make(map[types.CollectionID]uint32)
	for _, key := range snap.order {
		counts[key.CollectionID]++
	}

	known := make(map[types.CollectionID]types.Collection)
	for _, c := range snap.collections {
		known[c.ID] = c
		subject := fmt.Sprintf("collection %d", c.ID)

		if c.Max != nil && c.NftsCount > *c.Max {
			report.add(IssueOverCapacity, subject, "nfts_count %d exceeds max %d", c.NftsCount, *c.Max)
		}
		if c.NftsCount != counts[c.ID] {
			report.add(IssueCountMismatch, subject, "nfts_count %d but %d nfts stored", c.NftsCount, counts[c.ID])
		}
	}

	for _, key := range snap.order {
		nft := snap.nfts[key]
		subject := "nft " + key.String()

		collection, ok := known[key.CollectionID]
		if !ok {
			report.add(IssueOrphanNFT, subject, "collection %d does not exist", key.CollectionID)
		} else if key.NftID >= collection.NextNftID {
			report.add(IssueNftIDAhead, subject, "id not below next_nft_id %d", collection.NextNftID)
		}

		snap.checkLineage(&report, nft, maxNestingDepth)

		for _, resource := range snap.resources[key] {
			report.Resources++
			if resource.ID >= nft.NextResourceID {
				report.add(IssueResourceIDAhead, subject, "resource %d not below next_resource_id %d", resource.ID, nft.NextResourceID)
			}
		}
	}

	return report
}

// checkLineage walks the owner chain of nft. An NFT whose chain enters a cycle reports the cycle.
func (snap snapshot) checkLineage(report *Report, nft types.NFT, maxNestingDepth int) {
	subject := "nft " + nft.NFTKey.String()
	visited := map[types.NFTKey]bool{nft.NFTKey: true}
	owner := nft.Owner
	depth := 0

	for {
		parentOwner, ok := owner.(types.NFTOwner)
		if !ok {
			break
		}
		parentKey := parentOwner.Key()
		parent, found := snap.nfts[parentKey]
		if !found {
			report.add(IssueDanglingOwner, subject, "owner chain reaches missing nft %s", parentKey)
			return
		}
		if visited[parentKey] {
			report.add(IssueOwnershipCycle, subject, "owner chain revisits %s", parentKey)
			return
		}
		visited[parentKey] = true
		depth++
		owner = parent.Owner
	}

	if depth > maxNestingDepth {
		report.add(IssueTooDeep, subject, "nesting depth %d exceeds %d", depth, maxNestingDepth)
	}
}
