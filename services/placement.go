// services/placement.go
package services

import (
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ascendra/ascendra_backend/models"
)

// placementSearchLimit bounds the BFS so a corrupted or cyclic tree cannot
// hang placement; hitting it falls back to the root's left leg.
const placementSearchLimit = 5000

type childSlots struct {
	left  *primitive.ObjectID
	right *primitive.ObjectID
}

// buildChildIndex maps each parent id (hex) to its occupied legs.
func buildChildIndex(members []models.Member) map[string]*childSlots {
	index := make(map[string]*childSlots, len(members))
	for i := range members {
		m := &members[i]
		if m.ParentID == nil {
			continue
		}
		key := m.ParentID.Hex()
		slots := index[key]
		if slots == nil {
			slots = &childSlots{}
			index[key] = slots
		}
		id := m.ID
		switch m.Leg {
		case models.LegLeft:
			slots.left = &id
		case models.LegRight:
			slots.right = &id
		}
	}
	return index
}

// ResolvePlacement finds the binary-tree slot for a new member.
//
// Auto mode breadth-first searches from rootID and returns the shallowest,
// leftmost open slot (left child is enqueued before right, so FIFO order is
// the tie-break). Manual mode honors the requested parent/leg when that slot
// is free and otherwise falls back to auto placement rooted at the sponsor;
// a manual request is a preference, never a hard failure.
//
// The function is pure over the member snapshot and safe to call
// speculatively.
func ResolvePlacement(members []models.Member, rootID primitive.ObjectID, mode string, requestedParent string, requestedLeg models.Leg) models.Placement {
	index := buildChildIndex(members)

	if mode == models.PlacementManual && requestedParent != "" {
		if parent := findByUsername(members, requestedParent); parent != nil {
			slots := index[parent.ID.Hex()]
			if slotFree(slots, requestedLeg) {
				return models.Placement{ParentID: parent.ID, Leg: requestedLeg}
			}
			log.Printf("manual placement slot %s/%s occupied, falling back to auto placement", requestedParent, requestedLeg)
		} else {
			log.Printf("manual placement parent %q not found, falling back to auto placement", requestedParent)
		}
	}

	root := rootID
	if !memberExists(members, root) {
		if earliest := earliestCreated(members); earliest != nil {
			log.Printf("placement root %s not found, rooting search at earliest member %s", root.Hex(), earliest.ID.Hex())
			root = earliest.ID
		} else {
			return models.Placement{ParentID: root, Leg: models.LegLeft}
		}
	}

	queue := []primitive.ObjectID{root}
	for dequeues := 0; len(queue) > 0; dequeues++ {
		if dequeues >= placementSearchLimit {
			log.Printf("placement search exceeded %d nodes from root %s, falling back to root left leg", placementSearchLimit, root.Hex())
			return models.Placement{ParentID: root, Leg: models.LegLeft}
		}

		node := queue[0]
		queue = queue[1:]

		slots := index[node.Hex()]
		if slots == nil || slots.left == nil {
			return models.Placement{ParentID: node, Leg: models.LegLeft}
		}
		if slots.right == nil {
			return models.Placement{ParentID: node, Leg: models.LegRight}
		}
		queue = append(queue, *slots.left, *slots.right)
	}

	// Unreachable on a well-formed tree; the BFS always finds an open slot.
	return models.Placement{ParentID: root, Leg: models.LegLeft}
}

// BuildTree assembles the binary subtree rooted at rootID, down to maxDepth
// levels (root is depth 0). Returns nil when the root is not in the set.
func BuildTree(members []models.Member, rootID primitive.ObjectID, maxDepth int) *models.TreeNode {
	byID := make(map[string]*models.Member, len(members))
	for i := range members {
		byID[members[i].ID.Hex()] = &members[i]
	}
	index := buildChildIndex(members)

	var build func(id primitive.ObjectID, depth int) *models.TreeNode
	build = func(id primitive.ObjectID, depth int) *models.TreeNode {
		m, ok := byID[id.Hex()]
		if !ok {
			return nil
		}
		node := &models.TreeNode{
			ID:       m.ID,
			Username: m.Username,
			Rank:     m.Rank,
			Leg:      m.Leg,
		}
		if depth >= maxDepth {
			return node
		}
		if slots := index[id.Hex()]; slots != nil {
			if slots.left != nil {
				node.Left = build(*slots.left, depth+1)
			}
			if slots.right != nil {
				node.Right = build(*slots.right, depth+1)
			}
		}
		return node
	}
	return build(rootID, 0)
}

func slotFree(slots *childSlots, leg models.Leg) bool {
	if slots == nil {
		return true
	}
	switch leg {
	case models.LegLeft:
		return slots.left == nil
	case models.LegRight:
		return slots.right == nil
	}
	return false
}

func findByUsername(members []models.Member, username string) *models.Member {
	for i := range members {
		if members[i].Username == username {
			return &members[i]
		}
	}
	return nil
}

func memberExists(members []models.Member, id primitive.ObjectID) bool {
	for i := range members {
		if members[i].ID == id {
			return true
		}
	}
	return false
}

func earliestCreated(members []models.Member) *models.Member {
	var earliest *models.Member
	for i := range members {
		m := &members[i]
		if earliest == nil || m.CreatedAt.Before(earliest.CreatedAt) {
			earliest = m
		}
	}
	return earliest
}
