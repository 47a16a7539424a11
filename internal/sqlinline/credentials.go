package sqlinline

const QSelectProviderToken = `--sql c6a91d2e-4f38-4b07-9e51-82d4f0a6b713
select token
from provider_credentials
where provider = $1::text
limit 1;
`

const QUpsertProviderToken = `--sql 7e25b8c4-1a6f-4d92-b370-f59c8e41d0a2
insert into provider_credentials (provider, token, props, updated_at)
values ($1::text, $2::text, $3::jsonb, now())
on conflict (provider)
do update set token = excluded.token, props = excluded.props, updated_at = now();
`
