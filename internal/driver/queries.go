package driver

// Cypher lives here. Queries with a dynamic label or relationship type are
// templates (labels cannot be parameterized); the graph store fills them in
// with fmt.Sprintf using values from the closed NodeType/EdgeType enums only.
const (
	// %s: extra label derived from the node type.
	UpsertNodeTmpl = `
		MERGE (n:Node {id: $id})
		SET n += $props
		SET n:%s
		RETURN n.id AS id
	`

	// %s: relationship type.
	UpsertEdgeTmpl = `
		MATCH (source:Node {id: $source_id})
		MATCH (target:Node {id: $target_id})
		MERGE (source)-[r:%s {id: $id}]->(target)
		SET r += $props
		RETURN r.id AS id
	`

	// %s: extra label shared by the whole batch; %s: relationship type
	// linking each created node to the anchor.
	UpsertNodesBatchTmpl = `
		MATCH (anchor:Node {id: $anchor_id})
		UNWIND $rows AS row
		MERGE (n:Node {id: row.id})
		SET n += row.props
		SET n:%s
		MERGE (n)-[r:%s {id: row.edge_id}]->(anchor)
		SET r += row.edge_props
		RETURN count(n) AS created
	`

	FetchNodePropsQuery = `
		MATCH (n:Node {id: $id})
		RETURN properties(n) AS props
	`

	FetchNodesByTypeQuery = `
		MATCH (n:Node {type: $type})
		RETURN properties(n) AS props
		ORDER BY n.id
	`

	UpdateNodeConfidenceQuery = `
		MATCH (n:Node {id: $id})
		SET n.confidence_empirical_support = $empirical_support,
			n.confidence_theoretical_basis = $theoretical_basis,
			n.confidence_methodological_rigor = $methodological_rigor,
			n.confidence_consensus_alignment = $consensus_alignment,
			n.updated_at = $updated_at
		RETURN n.id AS id
	`

	// Missing confidence or impact properties coalesce to 1.0 so nodes are
	// never pruned on absent data. Any component under the threshold counts
	// as a low minimum confidence.
	PruneLowValueNodesQuery = `
		MATCH (n:Node)
		WHERE n.type IN $types
		  AND coalesce(n.metadata_impact_score, 1.0) < $min_impact
		  AND (coalesce(n.confidence_empirical_support, 1.0) < $min_confidence
			OR coalesce(n.confidence_theoretical_basis, 1.0) < $min_confidence
			OR coalesce(n.confidence_methodological_rigor, 1.0) < $min_confidence
			OR coalesce(n.confidence_consensus_alignment, 1.0) < $min_confidence)
		WITH n LIMIT 500
		DETACH DELETE n
		RETURN count(n) AS pruned
	`

	PruneIsolatedNodesQuery = `
		MATCH (n:Node)
		WHERE NOT (n)--() AND n.type <> 'root'
		DELETE n
		RETURN count(n) AS pruned
	`

	PruneWeakEdgesQuery = `
		MATCH (:Node)-[r]->(:Node)
		WHERE coalesce(r.confidence, 1.0) < $min_confidence
		DELETE r
		RETURN count(r) AS pruned
	`

	CountNodesQuery = `
		MATCH (n:Node)
		RETURN count(n) AS total
	`

	CountEdgesQuery = `
		MATCH (:Node)-[r]->(:Node)
		RETURN count(r) AS total
	`

	// %d: neighborhood depth.
	NeighborhoodTmpl = `
		MATCH (n:Node {id: $id})-[*1..%d]-(m:Node)
		RETURN DISTINCT m.id AS id
	`

	FetchEdgesAmongNodesQuery = `
		MATCH (a:Node)-[r]->(b:Node)
		WHERE a.id IN $ids AND b.id IN $ids
		RETURN r.id AS id, a.id AS source_id, b.id AS target_id,
			   type(r) AS rel_type, coalesce(r.confidence, 1.0) AS confidence
	`
)
