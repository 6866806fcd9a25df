package db

// Table names. Knowledge tables are named after their category.
const (
	tableEvents = "events"
)

// SchemaSQL defines the memory bank tables: significant events keyed by
// "<unix millis>_<type>" and one knowledge table per category keyed by name.
const SchemaSQL = `
    -- ==========================================================================
    -- EVENTS (significant events, keyed by timestamp and type)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS events SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS event_type ON events TYPE string;
    DEFINE FIELD IF NOT EXISTS timestamp ON events TYPE datetime;
    DEFINE FIELD IF NOT EXISTS data ON events TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS context ON events TYPE object FLEXIBLE;

    DEFINE INDEX IF NOT EXISTS events_timestamp ON events FIELDS timestamp;
    DEFINE INDEX IF NOT EXISTS events_type ON events FIELDS event_type;

    -- ==========================================================================
    -- KNOWLEDGE (creatures and items, keyed by name)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS creatures SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON creatures TYPE string;
    DEFINE FIELD IF NOT EXISTS first_seen ON creatures TYPE datetime;
    DEFINE FIELD IF NOT EXISTS last_seen ON creatures TYPE datetime;
    DEFINE FIELD IF NOT EXISTS encounter_count ON creatures TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS fields ON creatures TYPE object FLEXIBLE;

    DEFINE TABLE IF NOT EXISTS items SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON items TYPE string;
    DEFINE FIELD IF NOT EXISTS first_seen ON items TYPE datetime;
    DEFINE FIELD IF NOT EXISTS last_seen ON items TYPE datetime;
    DEFINE FIELD IF NOT EXISTS encounter_count ON items TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS fields ON items TYPE object FLEXIBLE;
`
