package storage

const schema = `
PRAGMA foreign_keys = ON;

-- The 'param_tables' table stores every parameter table a run was evaluated against.
CREATE TABLE IF NOT EXISTS param_tables (
    fingerprint TEXT PRIMARY KEY,
    weights TEXT NOT NULL, -- newline separated, as produced by knol.Normalize
    created_at DATETIME NOT NULL
);

-- The 'runs' table records one simulated scenario per row.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    scenario TEXT NOT NULL,
    scenario_hash TEXT NOT NULL,
    fingerprint TEXT NOT NULL,
    policy TEXT NOT NULL,
    retention REAL NOT NULL,
    passed INTEGER NOT NULL,
    ran_at DATETIME NOT NULL,

    FOREIGN KEY(fingerprint) REFERENCES param_tables(fingerprint) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS runs_by_scenario ON runs(scenario_hash, fingerprint, ran_at);

-- The 'steps' table holds the simulated (t, s, d, i) rows of a run.
CREATE TABLE IF NOT EXISTS steps (
    run_id TEXT NOT NULL,
    idx INTEGER NOT NULL,
    t REAL NOT NULL,
    s REAL NOT NULL,
    d REAL NOT NULL,
    i REAL NOT NULL,

    PRIMARY KEY(run_id, idx),
    FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
