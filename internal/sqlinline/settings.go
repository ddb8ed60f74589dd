package sqlinline

// Settings rows hold one JSON document per storage key.
//
//	create table if not exists settings (
//	    key        text primary key,
//	    value      jsonb not null,
//	    updated_at timestamptz not null default now()
//	);

const QEnsureSettingsTable = `--sql 3f9c2a71-5b8e-4c0d-9e61-2d7a4b8f1c35
create table if not exists settings (
    key        text primary key,
    value      jsonb not null,
    updated_at timestamptz not null default now()
);
`

const QSelectSettings = `--sql 9d1e6b42-0a7f-4e3c-b58d-71c2f0a9e6d4
select key, value
from settings
where key = any($1::text[]);
`

// QUpsertSettings writes every key of a JSON object in one statement so a
// multi-key save is atomic.
const QUpsertSettings = `--sql c47a0e19-8d2b-4f65-a3c1-5e9b7d20f8a6
insert into settings (key, value, updated_at)
select e.key, e.value, now()
from jsonb_each($1::jsonb) as e(key, value)
on conflict (key) do update set
    value = excluded.value,
    updated_at = now();
`
