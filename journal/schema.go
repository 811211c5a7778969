package journal

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	state TEXT NOT NULL,
	config TEXT NOT NULL,
	metrics TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	cash REAL NOT NULL,
	total_value REAL NOT NULL,
	positions TEXT NOT NULL,
	orders TEXT NOT NULL,
	fault TEXT NOT NULL,
	PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	commission REAL NOT NULL,
	realized_pl REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS faults (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	kind TEXT NOT NULL,
	message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);
CREATE INDEX IF NOT EXISTS idx_faults_run ON faults(run_id);
`
