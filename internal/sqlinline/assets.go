package sqlinline

const QInsertAsset = `--sql 82d5f3c1-49ab-4e07-9c68-15e7b0a4d392
insert into media_assets(
  id,
  job_id,
  store_id,
  user_id,
  type,
  provider,
  provider_model,
  prompt,
  storage_path,
  file_name,
  public_url,
  signed_url,
  signed_expires_at,
  mime_type,
  meta,
  created_at
) values (
  $1::uuid,
  $2::uuid,
  $3::text,
  $4::uuid,
  $5::text,
  $6::text,
  nullif($7::text, ''),
  $8::text,
  $9::text,
  $10::text,
  nullif($11::text, ''),
  nullif($12::text, ''),
  $13::timestamptz,
  $14::text,
  $15::jsonb,
  now()
);
`
