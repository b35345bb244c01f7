package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250815-000000",
		Description: "initial schema",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS templates (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				image_url TEXT NOT NULL,
				variant_urls TEXT NOT NULL DEFAULT '[]',
				prompt TEXT NOT NULL DEFAULT '',
				categories TEXT NOT NULL DEFAULT '[]',
				metadata TEXT NOT NULL DEFAULT '{}',
				is_active INTEGER NOT NULL DEFAULT 1,
				is_premium INTEGER NOT NULL DEFAULT 0,
				usage_count INTEGER NOT NULL DEFAULT 0,
				brand_domain TEXT NOT NULL DEFAULT '',
				face_count INTEGER NOT NULL DEFAULT 1,
				group_slots TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_templates_active ON templates(is_active)`,
			`CREATE INDEX IF NOT EXISTS idx_templates_brand ON templates(brand_domain)`,

			`CREATE TABLE IF NOT EXISTS user_profiles (
				user_id TEXT PRIMARY KEY,
				body_types TEXT NOT NULL DEFAULT '[]',
				occasions TEXT NOT NULL DEFAULT '[]',
				moods TEXT NOT NULL DEFAULT '[]',
				styles TEXT NOT NULL DEFAULT '[]',
				used_templates TEXT NOT NULL DEFAULT '[]',
				favorite_templates TEXT NOT NULL DEFAULT '[]',
				answered_questions TEXT NOT NULL DEFAULT '[]',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS screener_questions (
				id TEXT PRIMARY KEY,
				ord INTEGER NOT NULL DEFAULT 0,
				multi_select INTEGER NOT NULL DEFAULT 0,
				option_keys TEXT NOT NULL DEFAULT '[]',
				translations TEXT NOT NULL DEFAULT '{}',
				category TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				target_gender TEXT NOT NULL DEFAULT '',
				min_prior_uses INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_screener_order ON screener_questions(ord)`,

			`CREATE TABLE IF NOT EXISTS user_balances (
				user_id TEXT PRIMARY KEY,
				credits INTEGER NOT NULL DEFAULT 0,
				lifetime_added INTEGER NOT NULL DEFAULT 0,
				lifetime_spent INTEGER NOT NULL DEFAULT 0,
				updated_at TEXT NOT NULL
			)`,

			`CREATE TABLE IF NOT EXISTS credit_transactions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				type TEXT NOT NULL,
				delta INTEGER NOT NULL,
				balance_before INTEGER NOT NULL,
				balance_after INTEGER NOT NULL,
				payment_id TEXT UNIQUE,
				face_swap_id TEXT,
				description TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_credit_tx_user ON credit_transactions(user_id, created_at)`,

			`CREATE TABLE IF NOT EXISTS face_swaps (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				template_id TEXT NOT NULL DEFAULT '',
				template_title TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				credits_charged INTEGER NOT NULL DEFAULT 0,
				transaction_id TEXT,
				result_url TEXT,
				result_upload_failed INTEGER NOT NULL DEFAULT 0,
				error_message TEXT NOT NULL DEFAULT '',
				provider TEXT NOT NULL DEFAULT '',
				is_guest INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_face_swaps_user ON face_swaps(user_id, created_at)`,

			`CREATE TABLE IF NOT EXISTS brand_configs (
				domain TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				logo_url TEXT NOT NULL DEFAULT '',
				theme_color TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	})
}
