package storage

const schema = `
CREATE TABLE IF NOT EXISTS discussions (
    channel               TEXT NOT NULL,
    id                    TEXT NOT NULL,
    title                 TEXT NOT NULL,
    body                  TEXT NOT NULL DEFAULT '',
    author                TEXT NOT NULL DEFAULT '',
    created_at            DATETIME NOT NULL,
    score                 INTEGER NOT NULL DEFAULT 0,
    upvote_ratio          REAL,
    comment_count         INTEGER NOT NULL DEFAULT 0,
    url                   TEXT NOT NULL DEFAULT '',
    permalink             TEXT NOT NULL DEFAULT '',
    is_self               BOOLEAN NOT NULL DEFAULT 0,
    flair                 TEXT NOT NULL DEFAULT '',
    matched_organizations TEXT NOT NULL DEFAULT '[]',
    polarity              REAL,
    subjectivity          REAL,
    label                 TEXT,
    collected_at          DATETIME NOT NULL,
    PRIMARY KEY (channel, id)
);

CREATE INDEX IF NOT EXISTS idx_discussions_created ON discussions(created_at);

CREATE TABLE IF NOT EXISTS comments (
    id            TEXT PRIMARY KEY,
    discussion_id TEXT NOT NULL,
    body          TEXT NOT NULL DEFAULT '',
    author        TEXT NOT NULL DEFAULT '',
    created_at    DATETIME,
    score         INTEGER NOT NULL DEFAULT 0,
    is_submitter  BOOLEAN NOT NULL DEFAULT 0,
    parent_id     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_comments_discussion ON comments(discussion_id);

CREATE TABLE IF NOT EXISTS runs (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME NOT NULL,
    records     INTEGER NOT NULL DEFAULT 0,
    comments    INTEGER NOT NULL DEFAULT 0,
    failures    INTEGER NOT NULL DEFAULT 0
);
`
