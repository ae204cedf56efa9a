package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create graphs table
			CREATE TABLE graphs (
				id UUID PRIMARY KEY,
				source_idea TEXT NOT NULL DEFAULT '',
				summary TEXT NOT NULL DEFAULT '',
				nodes JSONB,
				edges JSONB,
				warnings JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_graphs_created_at ON graphs(created_at);
			CREATE INDEX idx_graphs_deleted_at ON graphs(deleted_at);
		`,
		2: `
			-- Migration 2: index node payloads so category and status lookups
			-- don't scan every graph document
			CREATE INDEX idx_graphs_nodes ON graphs USING GIN (nodes);
		`,
	}
}
