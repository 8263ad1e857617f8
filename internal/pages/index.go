package pages

import "github.com/a-h/templ"

// Index is the operator console.
func Index() templ.Component {
	return Layout("EasyPresenter", indexCSS, templ.Raw(indexBody))
}

const indexCSS = `
header{display:flex;gap:8px;align-items:center;padding:8px 12px;background:#1a1a1a;border-bottom:1px solid #333}
header h1{font-size:16px;margin:0 12px 0 0}
#status{margin-left:auto;font-size:12px;opacity:.7;white-space:pre-line}
main{display:grid;grid-template-columns:1fr 1fr 1fr;gap:12px;padding:12px;height:calc(100vh - 46px)}
section{background:#181818;border:1px solid #2a2a2a;border-radius:6px;padding:8px;overflow:auto}
section h2{font-size:14px;margin:0 0 8px}
ul{list-style:none;margin:0;padding:0}
li{padding:4px 6px;border-radius:4px;cursor:pointer;display:flex;gap:6px;align-items:center}
li:hover{background:#262626}
li.active{background:#2f4f7f}
li span{flex:1}
.slide{white-space:pre-line;border:1px solid #333;margin:4px 0;padding:6px}
.row{display:flex;gap:6px;margin-bottom:6px}
.row>*{flex:1}
textarea{width:100%;min-height:120px}
`

const indexBody = `
<header>
  <h1>EasyPresenter</h1>
  <button id="open">Open projector</button>
  <button id="clear">Clear</button>
  <button data-video="play">&#9654;</button>
  <button data-video="pause">&#10074;&#10074;</button>
  <button data-video="restart">&#8634;</button>
  <button id="export">Export songs</button>
  <button id="import">Import songs</button>
  <span id="status"></span>
</header>
<main>
  <section>
    <h2>Songs</h2>
    <div class="row"><input id="q" placeholder="Search"><button id="new">New</button></div>
    <ul id="songs"></ul>
    <div id="editor" hidden>
      <input id="title" placeholder="Title" style="width:100%;margin:6px 0">
      <textarea id="lyrics" placeholder="Stanzas separated by a blank line"></textarea>
      <div class="row"><button id="save">Save</button><button id="remove">Delete</button></div>
    </div>
    <div id="slides"></div>
  </section>
  <section>
    <h2>Bible</h2>
    <div class="row"><select id="version"></select><select id="book"></select><select id="chapter"></select></div>
    <ul id="verses"></ul>
  </section>
  <section>
    <h2>Media</h2>
    <div class="row"><button data-add="image">+ Image</button><button data-add="video">+ Video</button><button data-add="pdf">+ PDF</button></div>
    <ul id="images"></ul>
    <ul id="videos"></ul>
    <ul id="pdfs"></ul>
  </section>
</main>
<script>
(function(){
  const $ = id => document.getElementById(id);
  const status = msg => { $('status').textContent = msg; };

  async function api(method, url, body){
    const res = await fetch(url, {method, headers: body === undefined ? {} : {'Content-Type':'application/json'},
      body: body === undefined ? undefined : JSON.stringify(body)});
    if (!res.ok) { const t = await res.text(); status(t); throw new Error(t); }
    return res.status === 204 ? null : res.json();
  }
  const project = p => api('POST', '/api/projector/verse', p);

  function item(label, onclick, extra){
    const li = document.createElement('li');
    const s = document.createElement('span');
    s.textContent = label;
    li.appendChild(s);
    li.onclick = onclick;
    (extra || []).forEach(e => li.appendChild(e));
    return li;
  }
  function button(label, fn){
    const b = document.createElement('button');
    b.textContent = label;
    b.onclick = e => { e.stopPropagation(); fn(); };
    return b;
  }

  // Songs
  let current = null;
  async function loadSongs(){
    const q = $('q').value.trim();
    const songs = await api('GET', '/api/songs' + (q ? '?q=' + encodeURIComponent(q) : ''));
    const ul = $('songs'); ul.innerHTML = '';
    songs.forEach(s => ul.appendChild(item(s.title, () => openSong(s))));
  }
  async function openSong(s){
    current = s;
    const slides = await api('GET', '/api/songs/' + s.id + '/slides');
    $('title').value = s.title;
    $('lyrics').value = slides.map(x => x.body).join('\n\n');
    $('editor').hidden = false;
    const box = $('slides'); box.innerHTML = '';
    slides.forEach(x => {
      const d = document.createElement('div');
      d.className = 'slide'; d.textContent = x.body;
      d.onclick = () => project({kind:'text', text:x.body, reference:s.title});
      box.appendChild(d);
    });
  }
  $('q').oninput = loadSongs;
  $('new').onclick = () => { current = null; $('title').value = ''; $('lyrics').value = ''; $('editor').hidden = false; $('slides').innerHTML = ''; };
  $('save').onclick = async () => {
    const body = {title: $('title').value, lyrics: $('lyrics').value};
    if (current) await api('PUT', '/api/songs/' + current.id, body);
    else current = {id: (await api('POST', '/api/songs', body)).id};
    current.title = body.title;
    await loadSongs(); await openSong(current);
  };
  $('remove').onclick = async () => {
    if (!current || !confirm('Delete "' + current.title + '"?')) return;
    await api('DELETE', '/api/songs/' + current.id);
    current = null; $('editor').hidden = true; $('slides').innerHTML = '';
    loadSongs();
  };

  // Bible
  function fill(sel, values, label){
    sel.innerHTML = '';
    values.forEach(v => { const o = document.createElement('option'); o.value = label ? v.name : v; o.textContent = label ? label(v) : v; sel.appendChild(o); });
  }
  let books = [];
  async function loadVersions(){
    fill($('version'), await api('GET', '/api/bible/versions'));
    await loadBooks();
  }
  async function loadBooks(){
    books = await api('GET', '/api/bible/' + encodeURIComponent($('version').value) + '/books');
    fill($('book'), books, b => b.name);
    loadChapters();
  }
  function loadChapters(){
    const b = books.find(x => x.name === $('book').value);
    fill($('chapter'), b ? Array.from({length: b.chapters}, (_, i) => i + 1) : []);
    loadVerses();
  }
  async function loadVerses(){
    const v = $('version').value, b = $('book').value, c = $('chapter').value;
    const ul = $('verses'); ul.innerHTML = '';
    if (!v || !b || !c) return;
    const verses = await api('GET', '/api/bible/' + encodeURIComponent(v) + '/' + encodeURIComponent(b) + '/' + c);
    verses.forEach(x => ul.appendChild(item(x.verse + '. ' + x.text,
      () => project({kind:'text', text:x.text, reference:x.book + ' ' + x.chapter + ':' + x.verse + ' (' + v + ')'}))));
  }
  $('version').onchange = loadBooks;
  $('book').onchange = loadChapters;
  $('chapter').onchange = loadVerses;

  // Media
  async function loadMedia(){
    const [images, videos, pdfs] = await Promise.all([api('GET','/api/images'), api('GET','/api/videos'), api('GET','/api/pdfs')]);
    const ui = $('images'); ui.innerHTML = '';
    images.forEach(m => {
      const sel = document.createElement('select');
      ['contain','cover','fill'].forEach(a => { const o = document.createElement('option'); o.value = o.textContent = a; sel.appendChild(o); });
      sel.value = m.aspect; sel.onclick = e => e.stopPropagation();
      sel.onchange = () => api('PUT', '/api/images/' + m.id + '/aspect', {aspect: sel.value}).then(loadMedia);
      ui.appendChild(item('\u{1F5BC} ' + m.name, () => project({kind:'image', id:m.id, aspect:m.aspect}),
        [sel, button('x', () => api('DELETE', '/api/images/' + m.id).then(loadMedia))]));
    });
    const uv = $('videos'); uv.innerHTML = '';
    videos.forEach(m => uv.appendChild(item('\u{1F3AC} ' + m.name, () => project({kind:'video', id:m.id, loop:m.loop, gain:m.gain}),
      [button(m.loop ? 'loop on' : 'loop off', () => api('PUT', '/api/videos/' + m.id + '/loop', {enabled: !m.loop}).then(loadMedia)),
       button('x', () => api('DELETE', '/api/videos/' + m.id).then(loadMedia))])));
    const up = $('pdfs'); up.innerHTML = '';
    pdfs.forEach(m => up.appendChild(item('\u{1F4C4} ' + m.name, () => project({kind:'pdf', id:m.id}),
      [button('x', () => api('DELETE', '/api/pdfs/' + m.id).then(loadMedia))])));
  }
  document.querySelectorAll('[data-add]').forEach(b => b.onclick = async () => {
    const kind = b.dataset.add;
    const picked = await api('POST', '/api/pick/' + kind);
    if (picked.cancelled) return;
    await api('POST', '/api/' + kind + 's', {path: picked.path});
    loadMedia();
  });

  // Projector
  $('open').onclick = () => api('POST', '/api/projector/open');
  $('clear').onclick = () => project({kind:'clear'});
  document.querySelectorAll('[data-video]').forEach(b => b.onclick = () => api('POST', '/api/projector/video', {action: b.dataset.video}));
  $('export').onclick = async () => status((await api('POST', '/api/songs/export')).message);
  $('import').onclick = async () => status((await api('POST', '/api/songs/import')).message);

  const es = new EventSource('/events?role=operator');
  es.addEventListener('reload-songs', loadSongs);

  loadSongs(); loadVersions(); loadMedia();
})();
</script>`
